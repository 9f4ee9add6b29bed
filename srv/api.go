package srv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kataster.exe.dev/srv/kataster"
	"kataster.exe.dev/srv/metrics"
	"kataster.exe.dev/srv/selection"
	"kataster.exe.dev/srv/viewport"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// asOfParam validates the optional asof query parameter. The second return
// is false when the parameter is present but malformed (response written).
func asOfParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	asOf := strings.TrimSpace(r.URL.Query().Get("asof"))
	if asOf != "" && !kataster.ValidDate(asOf) {
		writeError(w, http.StatusBadRequest, "invalid asof date, expected YYYY-MM-DD")
		return "", false
	}
	return asOf, true
}

// HandleSearch lists a parcel's versions, optionally constrained to those
// valid on the asof date.
// GET /api/parcels/search?tunnus=79501:027:0011&asof=2020-01-01
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	tunnus := strings.TrimSpace(r.URL.Query().Get("tunnus"))
	if !kataster.ValidTunnus(tunnus) {
		writeError(w, http.StatusBadRequest, "invalid cadastral identifier")
		return
	}
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}

	versions, err := s.Kataster.ListVersions(r.Context(), tunnus, asOf)
	if err != nil {
		slog.Error("version search failed", "tunnus", tunnus, "error", err)
		writeError(w, http.StatusBadGateway, "feature service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// HandleHistory returns every property of every version of a parcel.
// GET /api/parcels/{tunnus}/history
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	tunnus := strings.TrimSpace(r.PathValue("tunnus"))
	if !kataster.ValidTunnus(tunnus) {
		writeError(w, http.StatusBadRequest, "invalid cadastral identifier")
		return
	}

	versions, err := s.Kataster.FetchHistory(r.Context(), tunnus)
	if err != nil {
		slog.Error("history fetch failed", "tunnus", tunnus, "error", err)
		writeError(w, http.StatusBadGateway, "feature service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// HandleSelectionState returns the current selection snapshot.
func (s *Server) HandleSelectionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Selection.State())
}

// HandleSelectionToggle adds or removes one version from the comparison
// set. Body: {"tunnus": ..., "valid_from": ..., "valid_to": ...} with
// valid_to absent for the active version.
func (s *Server) HandleSelectionToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tunnus    string `json:"tunnus"`
		ValidFrom string `json:"valid_from"`
		ValidTo   string `json:"valid_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Tunnus = strings.TrimSpace(req.Tunnus)
	if !kataster.ValidTunnus(req.Tunnus) {
		writeError(w, http.StatusBadRequest, "invalid cadastral identifier")
		return
	}
	if req.ValidFrom == "" {
		writeError(w, http.StatusBadRequest, "missing valid_from")
		return
	}

	state, err := s.Selection.Toggle(r.Context(), kataster.Version{
		Tunnus:    req.Tunnus,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	})
	switch {
	case errors.Is(err, selection.ErrSelectionFull):
		writeError(w, http.StatusConflict, "at most two versions can be compared")
		return
	case errors.Is(err, kataster.ErrNoGeometry):
		writeError(w, http.StatusNotFound, "no geometry found for this version")
		return
	case err != nil:
		slog.Error("selection toggle failed", "tunnus", req.Tunnus, "error", err)
		writeError(w, http.StatusBadGateway, "feature service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleSelectionClear empties the selection.
func (s *Server) HandleSelectionClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Selection.Clear())
}

// HandleSelectionExtent returns the union extent of the selection for an
// explicit fit-all request; extent is null when nothing is selected.
func (s *Server) HandleSelectionExtent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"extent": s.Selection.UnionExtent()})
}

// HandleIdentify resolves a map click to a parcel identifier. Misses and
// transport failures alike answer an empty object: clicking outside any
// parcel is routine and the viewer never surfaced the difference.
// GET /api/identify?x=542466.1&y=6589194.8&asof=2020-01-01
func (s *Server) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}

	tunnus, err := s.Kataster.IdentifyAt(r.Context(), x, y, asOf)
	if err != nil {
		if !errors.Is(err, kataster.ErrNotFound) {
			slog.Debug("identify failed", "x", x, "y", y, "error", err)
		}
		metrics.IdentifyMissesTotal.Inc()
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tunnus": tunnus})
}

// HandleBoundaryFilter returns the validity predicate the frontend applies
// to its boundary WMS layer, empty when unconstrained.
// GET /api/boundary-filter?asof=2020-01-01
func (s *Server) HandleBoundaryFilter(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cql": kataster.TemporalPredicate(asOf)})
}

// HandleViewportGet returns the persisted viewport, falling back to the
// default extent when loading fails.
func (s *Server) HandleViewportGet(w http.ResponseWriter, r *http.Request) {
	vp, err := s.Viewport.Load(r.Context())
	if err != nil {
		slog.Warn("viewport load failed", "error", err)
		vp = viewport.Default
	}
	writeJSON(w, http.StatusOK, vp)
}

// HandleViewportPut persists the viewport.
func (s *Server) HandleViewportPut(w http.ResponseWriter, r *http.Request) {
	var vp viewport.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := s.Viewport.Save(r.Context(), vp); err != nil {
		slog.Error("viewport save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

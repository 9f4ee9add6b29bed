// Package srv serves the parcel history API: version search, bounded
// geometry selection, point identification and viewport persistence. Map
// rendering happens in the frontend; this side only hands it styled
// geometries, extents and filter fragments.
package srv

import (
	"log/slog"
	"net/http"
	"time"

	"kataster.exe.dev/srv/kataster"
	"kataster.exe.dev/srv/metrics"
	"kataster.exe.dev/srv/selection"
	"kataster.exe.dev/srv/viewport"
)

type Server struct {
	Hostname  string
	Kataster  *kataster.Client
	Selection *selection.Manager
	Viewport  viewport.Store
	StaticDir string
}

// New wires a server around the feature service client and viewport store.
func New(client *kataster.Client, store viewport.Store, hostname string) *Server {
	return &Server{
		Hostname:  hostname,
		Kataster:  client,
		Selection: selection.NewManager(client),
		Viewport:  store,
	}
}

// Routes builds the route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Parcel listing
	mux.HandleFunc("GET /api/parcels/search", s.HandleSearch)
	mux.HandleFunc("GET /api/parcels/{tunnus}/history", s.HandleHistory)

	// Selection
	mux.HandleFunc("GET /api/selection", s.HandleSelectionState)
	mux.HandleFunc("POST /api/selection/toggle", s.HandleSelectionToggle)
	mux.HandleFunc("POST /api/selection/clear", s.HandleSelectionClear)
	mux.HandleFunc("GET /api/selection/extent", s.HandleSelectionExtent)

	// Map support
	mux.HandleFunc("GET /api/identify", s.HandleIdentify)
	mux.HandleFunc("GET /api/boundary-filter", s.HandleBoundaryFilter)
	mux.HandleFunc("GET /api/viewport", s.HandleViewportGet)
	mux.HandleFunc("PUT /api/viewport", s.HandleViewportPut)

	mux.Handle("GET /metrics", metrics.Handler())

	// Frontend assets, when a build is deployed next to the binary
	if s.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.StaticDir)))
	}

	return accessLog(mux)
}

// Serve starts the HTTP server with the configured routes.
func (s *Server) Serve(addr string) error {
	slog.Info("starting server", "addr", addr, "host", s.Hostname)
	return http.ListenAndServe(addr, s.Routes())
}

// statusWriter captures the response status for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// accessLog logs one line per request at debug level.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		slog.Debug("http_access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

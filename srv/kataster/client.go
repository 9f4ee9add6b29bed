// Package kataster provides a client for the Estonian cadastre WFS feature
// service. The service answers GetFeature requests filtered with CQL text
// predicates and returns GeoJSON feature collections; every parcel carries
// a history of validity intervals, of which at most one is currently
// active.
package kataster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kataster.exe.dev/srv/metrics"
)

const (
	defaultBaseURL = "https://gsavalik.envir.ee/geoserver/kataster/ows"
	defaultTimeout = 30 * time.Second
)

// Common errors
var (
	ErrNotFound   = errors.New("no parcel at location")
	ErrNoGeometry = errors.New("no geometry found for version")
	ErrBadTunnus  = errors.New("invalid cadastral identifier")
	ErrBadDate    = errors.New("invalid as-of date")
	ErrServer     = errors.New("feature service error")
)

// Version is one row of a parcel's history: the identifier, the validity
// interval during which this record was authoritative, and whatever other
// properties the service returned. An empty ValidTo means the version is
// currently active.
type Version struct {
	Tunnus      string         `json:"tunnus"`
	ValidFrom   string         `json:"valid_from"`
	ValidTo     string         `json:"valid_to,omitempty"`
	Acquisition string         `json:"acquisition,omitempty"`
	Props       map[string]any `json:"properties,omitempty"`
	Geometry    *Geometry      `json:"geometry,omitempty"`
}

// Client is a cadastre feature service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the public cadastre endpoint.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithURL creates a client against a custom endpoint.
func NewClientWithURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// SetTimeout overrides the request timeout. Zero disables it, restoring
// the legacy no-timeout behavior of the original viewer.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// featureCollection mirrors the GeoJSON response envelope.
type featureCollection struct {
	Type     string        `json:"type"`
	Features []featureJSON `json:"features"`
}

type featureJSON struct {
	Properties map[string]any `json:"properties"`
	Geometry   *Geometry      `json:"geometry"`
}

// toVersion lifts the well-known fields out of the open property map.
func (f *featureJSON) toVersion() Version {
	v := Version{Props: f.Properties, Geometry: f.Geometry}
	v.Tunnus, _ = f.Properties[FieldTunnus].(string)
	v.ValidFrom = dateProp(f.Properties, FieldValidFrom)
	v.ValidTo = dateProp(f.Properties, FieldValidTo)
	v.Acquisition, _ = f.Properties[FieldAcquisition].(string)
	return v
}

// dateProp normalizes a date property to date-only form. The service
// returns either "2021-06-01" or "2021-06-01T00:00:00Z"; null means the
// version is still active and maps to the empty string.
func dateProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// doRequest performs a GetFeature request and decodes the collection.
// kind labels the query for metrics.
func (c *Client) doRequest(ctx context.Context, kind string, params url.Values) ([]featureJSON, error) {
	start := time.Now()
	metrics.QueriesTotal.WithLabelValues(kind).Inc()
	defer func() {
		metrics.QueryDurationMs.WithLabelValues(kind).Observe(float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Continue to parse body
	case resp.StatusCode >= http.StatusInternalServerError:
		metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
		return nil, ErrServer
	default:
		metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return fc.Features, nil
}

// ListVersions returns every version of the parcel matching the optional
// as-of date, ordered for display: active first, then most recently ended.
func (c *Client) ListVersions(ctx context.Context, tunnus, asOf string) ([]Version, error) {
	if !ValidTunnus(tunnus) {
		return nil, ErrBadTunnus
	}
	if asOf != "" && !ValidDate(asOf) {
		return nil, ErrBadDate
	}

	features, err := c.doRequest(ctx, "attributes", AttributeQuery(tunnus, asOf))
	if err != nil {
		return nil, err
	}

	versions := make([]Version, 0, len(features))
	for i := range features {
		versions = append(versions, features[i].toVersion())
	}
	SortVersions(versions)
	return versions, nil
}

// FetchHistory returns all properties of every version of the parcel,
// start date descending.
func (c *Client) FetchHistory(ctx context.Context, tunnus string) ([]Version, error) {
	if !ValidTunnus(tunnus) {
		return nil, ErrBadTunnus
	}

	features, err := c.doRequest(ctx, "history", AllPropertiesQuery(tunnus))
	if err != nil {
		return nil, err
	}

	versions := make([]Version, 0, len(features))
	for i := range features {
		versions = append(versions, features[i].toVersion())
	}
	return versions, nil
}

// FetchGeometry returns the full record(s) for one exact validity
// interval. Zero matches is ErrNoGeometry; more than one is passed through
// since uniqueness of intervals is the register's invariant, not ours.
func (c *Client) FetchGeometry(ctx context.Context, tunnus, validFrom, validTo string) ([]Version, error) {
	if !ValidTunnus(tunnus) {
		return nil, ErrBadTunnus
	}

	features, err := c.doRequest(ctx, "geometry", GeometryQuery(tunnus, validFrom, validTo))
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ErrNoGeometry
	}

	versions := make([]Version, 0, len(features))
	for i := range features {
		versions = append(versions, features[i].toVersion())
	}
	return versions, nil
}

// IdentifyAt resolves a map coordinate to the parcel whose geometry
// contains it under the optional as-of date. ErrNotFound when no parcel
// intersects the point.
func (c *Client) IdentifyAt(ctx context.Context, x, y float64, asOf string) (string, error) {
	if asOf != "" && !ValidDate(asOf) {
		return "", ErrBadDate
	}

	features, err := c.doRequest(ctx, "identify", PointQuery(x, y, asOf))
	if err != nil {
		return "", err
	}
	if len(features) == 0 {
		return "", ErrNotFound
	}
	tunnus, _ := features[0].Properties[FieldTunnus].(string)
	if tunnus == "" {
		return "", ErrNotFound
	}
	return tunnus, nil
}

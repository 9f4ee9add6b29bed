// Package viewport persists the map viewport (projected center and zoom)
// between sessions. Two backends exist: the local sqlite database and,
// when configured, redis. Load failures are never fatal; callers fall
// back to the default Estonian extent.
package viewport

import "context"

// StorageKey is the fixed key the viewport is stored under. It matches the
// key the original viewer used in browser local storage so exported state
// stays recognizable.
const StorageKey = "ky-ajalugu.viewport"

// Viewport is a projected map view: center in L-EST97 coordinates plus a
// zoom level.
type Viewport struct {
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// Default frames mainland Estonia.
var Default = Viewport{Center: [2]float64{550000, 6505000}, Zoom: 2}

// Store loads and saves the persisted viewport.
type Store interface {
	Load(ctx context.Context) (Viewport, error)
	Save(ctx context.Context, v Viewport) error
}

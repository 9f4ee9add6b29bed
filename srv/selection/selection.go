// Package selection owns the bounded set of selected parcel versions and
// keeps the geometry overlay, legend colors and detail rows derived from
// it. At most two versions can be compared at a time.
package selection

import (
	"context"
	"errors"
	"sort"
	"sync"

	"kataster.exe.dev/srv/kataster"
	"kataster.exe.dev/srv/metrics"
)

// MaxSelected bounds the comparison set.
const MaxSelected = 2

// Palette maps selection position to overlay color: first selected is
// green, second blue. Removing the first of two recolors the survivor to
// green, matching the legend.
var Palette = []string{"#2e7d32", "#1565c0"}

// ErrSelectionFull is returned when a third version is toggled on.
var ErrSelectionFull = errors.New("selection limit reached")

// Key identifies one selected version: the parcel identifier plus its
// exact validity interval. An empty ValidTo means the active version.
type Key struct {
	Tunnus    string `json:"tunnus"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to,omitempty"`
}

// KeyOf derives the selection key of a version record.
func KeyOf(v kataster.Version) Key {
	return Key{Tunnus: v.Tunnus, ValidFrom: v.ValidFrom, ValidTo: v.ValidTo}
}

// Fetcher is the slice of the feature service client the manager needs.
type Fetcher interface {
	FetchGeometry(ctx context.Context, tunnus, validFrom, validTo string) ([]kataster.Version, error)
	FetchHistory(ctx context.Context, tunnus string) ([]kataster.Version, error)
}

// Entry is one selected key with its assigned color.
type Entry struct {
	Key
	Color string `json:"color"`
}

// Details holds the full history rows shown for the most recently added
// selection's parcel.
type Details struct {
	Tunnus string             `json:"tunnus"`
	Rows   []kataster.Version `json:"rows"`
}

// State is a consistent snapshot of the selection: ordered entries with
// colors, the overlay records in the same order, the detail rows, and the
// extent the map should fit after an add (nil otherwise).
type State struct {
	Entries   []Entry        `json:"entries"`
	Overlay   []*Record      `json:"overlay"`
	Details   *Details       `json:"details,omitempty"`
	FitExtent *kataster.BBox `json:"fit_extent,omitempty"`
}

// Manager serializes all selection mutations behind one mutex, the Go
// rendition of the original single-threaded run-to-completion guarantee.
// Fetches happen outside the lock; nothing is applied until both succeed.
type Manager struct {
	mu      sync.Mutex
	fetcher Fetcher
	order   []Key
	overlay *Overlay
	details *Details
}

// NewManager creates an empty selection over the given fetcher.
func NewManager(f Fetcher) *Manager {
	return &Manager{fetcher: f, overlay: NewOverlay()}
}

// Toggle adds the version to the selection or, if it is already selected,
// removes it. Removal is synchronous. Adding fetches the geometry and the
// full history first (sequentially; the second fetch is skipped when the
// first fails) and only then mutates state, so a failed add leaves the
// selection exactly as it was.
func (m *Manager) Toggle(ctx context.Context, v kataster.Version) (State, error) {
	key := KeyOf(v)

	m.mu.Lock()
	if i := m.indexOf(key); i >= 0 {
		m.removeAt(i)
		st := m.snapshot(nil)
		m.mu.Unlock()
		return st, nil
	}
	if len(m.order) >= MaxSelected {
		m.mu.Unlock()
		return State{}, ErrSelectionFull
	}
	m.mu.Unlock()

	records, err := m.fetcher.FetchGeometry(ctx, key.Tunnus, key.ValidFrom, key.ValidTo)
	if err != nil {
		return State{}, err
	}
	rows, err := m.fetcher.FetchHistory(ctx, key.Tunnus)
	if err != nil {
		return State{}, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ValidFrom > rows[j].ValidFrom
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another toggle may have run while the fetches were in flight;
	// re-check membership and capacity before applying.
	if m.indexOf(key) >= 0 {
		return m.snapshot(nil), nil
	}
	if len(m.order) >= MaxSelected {
		return State{}, ErrSelectionFull
	}

	geoms := make([]*kataster.Geometry, 0, len(records))
	for i := range records {
		if records[i].Geometry != nil {
			geoms = append(geoms, records[i].Geometry)
		}
	}
	m.order = append(m.order, key)
	m.overlay.Add(key, geoms)
	m.recolor()
	m.details = &Details{Tunnus: key.Tunnus, Rows: rows}
	metrics.SelectionSize.Set(float64(len(m.order)))
	return m.snapshot(m.overlay.ExtentOf(key)), nil
}

// Clear empties the selection. Idempotent.
func (m *Manager) Clear() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = nil
	m.overlay.Clear()
	m.details = nil
	metrics.SelectionSize.Set(0)
	return m.snapshot(nil)
}

// State returns a snapshot of the current selection.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(nil)
}

// UnionExtent returns the minimal box covering every selected geometry,
// or nil when nothing is selected. Drives explicit "fit all" requests.
func (m *Manager) UnionExtent() *kataster.BBox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay.UnionExtent()
}

// indexOf returns the position of key in the selection order, or -1.
// Callers hold the lock.
func (m *Manager) indexOf(key Key) int {
	for i, k := range m.order {
		if k == key {
			return i
		}
	}
	return -1
}

// removeAt drops the selected key at position i, destroys its overlay
// record, closes the details when no remaining selection references their
// parcel, and reassigns colors. Callers hold the lock.
func (m *Manager) removeAt(i int) {
	key := m.order[i]
	m.order = append(m.order[:i], m.order[i+1:]...)
	m.overlay.Remove(key)
	if m.details != nil && m.details.Tunnus == key.Tunnus && !m.tunnusSelected(key.Tunnus) {
		m.details = nil
	}
	m.recolor()
	metrics.SelectionSize.Set(float64(len(m.order)))
}

// tunnusSelected reports whether any selected key references the parcel.
func (m *Manager) tunnusSelected(tunnus string) bool {
	for _, k := range m.order {
		if k.Tunnus == tunnus {
			return true
		}
	}
	return false
}

// recolor reassigns palette colors by current position, so colors always
// occupy the palette prefix with no gaps. Callers hold the lock.
func (m *Manager) recolor() {
	for i, k := range m.order {
		m.overlay.SetColor(k, Palette[i])
	}
}

// snapshot builds a State from current fields. Callers hold the lock.
func (m *Manager) snapshot(fit *kataster.BBox) State {
	st := State{
		Entries:   make([]Entry, 0, len(m.order)),
		Overlay:   make([]*Record, 0, len(m.order)),
		FitExtent: fit,
	}
	for i, k := range m.order {
		st.Entries = append(st.Entries, Entry{Key: k, Color: Palette[i]})
		if rec := m.overlay.Get(k); rec != nil {
			// Copy so later recolors cannot race a snapshot being
			// serialized outside the lock.
			cp := *rec
			st.Overlay = append(st.Overlay, &cp)
		}
	}
	if m.details != nil {
		st.Details = m.details
	}
	return st
}

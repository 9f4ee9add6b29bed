package selection

import "kataster.exe.dev/srv/kataster"

// Record is one overlaid geometry version. It carries its own key and the
// currently assigned color so the renderer can style each shape without a
// side lookup; the color here is a rendering cache, refreshed whenever the
// manager reassigns colors, never the source of truth.
type Record struct {
	Key        Key                  `json:"key"`
	Color      string               `json:"color"`
	Geometries []*kataster.Geometry `json:"geometries"`

	// Cached union of the geometries' bounding boxes.
	bbox *kataster.BBox
}

// Overlay holds the fetched geometries of the current selection, keyed by
// selection key. It is not safe for concurrent use on its own; the
// Manager's lock covers it.
type Overlay struct {
	records map[Key]*Record
}

// NewOverlay returns an empty overlay store.
func NewOverlay() *Overlay {
	return &Overlay{records: make(map[Key]*Record)}
}

// Add stores the geometries of a newly selected version. Replaces any
// record already stored under the key.
func (o *Overlay) Add(key Key, geoms []*kataster.Geometry) {
	rec := &Record{Key: key, Geometries: geoms}
	for _, g := range geoms {
		rec.bbox = kataster.Union(rec.bbox, g.BBox())
	}
	o.records[key] = rec
}

// Remove drops the record for the key, if present.
func (o *Overlay) Remove(key Key) {
	delete(o.records, key)
}

// Clear drops every record.
func (o *Overlay) Clear() {
	o.records = make(map[Key]*Record)
}

// SetColor updates the cached render color of one record.
func (o *Overlay) SetColor(key Key, color string) {
	if rec, ok := o.records[key]; ok {
		rec.Color = color
	}
}

// Get returns the record for the key, or nil.
func (o *Overlay) Get(key Key) *Record {
	return o.records[key]
}

// ExtentOf returns the bounding box of one stored record, or nil.
func (o *Overlay) ExtentOf(key Key) *kataster.BBox {
	rec := o.records[key]
	if rec == nil || rec.bbox == nil {
		return nil
	}
	box := *rec.bbox
	return &box
}

// UnionExtent returns the minimal box covering every stored geometry, or
// nil when the overlay is empty.
func (o *Overlay) UnionExtent() *kataster.BBox {
	var box *kataster.BBox
	for _, rec := range o.records {
		box = kataster.Union(box, rec.bbox)
	}
	return box
}

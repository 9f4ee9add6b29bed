package kataster

import "encoding/json"

// Geometry is a GeoJSON geometry with coordinates kept raw: the service
// returns Polygon or MultiPolygon shapes and the renderer consumes them
// verbatim, so only the extent math ever looks inside.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// BBox is an axis-aligned bounding box in L-EST97 coordinates.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// ExtendPoint grows the box to include the point.
func (b *BBox) ExtendPoint(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Extend grows the box to cover another box.
func (b *BBox) Extend(o *BBox) {
	if o == nil {
		return
	}
	b.ExtendPoint(o.MinX, o.MinY)
	b.ExtendPoint(o.MaxX, o.MaxY)
}

// Union returns the smallest box covering both arguments; either may be nil.
func Union(a, b *BBox) *BBox {
	if a == nil {
		return b
	}
	box := *a
	box.Extend(b)
	return &box
}

// BBox computes the geometry's bounding box by walking the coordinate
// arrays at whatever nesting depth the geometry type implies. Returns nil
// for empty or malformed coordinates.
func (g *Geometry) BBox() *BBox {
	if g == nil || len(g.Coordinates) == 0 {
		return nil
	}
	var raw any
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil
	}
	var box *BBox
	walkCoords(raw, &box)
	return box
}

// walkCoords recurses through nested coordinate arrays until it hits
// [x, y] pairs, extending the box with each position.
func walkCoords(v any, box **BBox) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return
	}
	if x, ok := arr[0].(float64); ok {
		if len(arr) < 2 {
			return
		}
		y, ok := arr[1].(float64)
		if !ok {
			return
		}
		if *box == nil {
			*box = &BBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
		} else {
			(*box).ExtendPoint(x, y)
		}
		return
	}
	for _, e := range arr {
		walkCoords(e, box)
	}
}

package kataster

import (
	"encoding/json"
	"testing"
)

func polygon(coords string) *Geometry {
	return &Geometry{Type: "Polygon", Coordinates: json.RawMessage(coords)}
}

func TestGeometryBBox(t *testing.T) {
	t.Run("polygon", func(t *testing.T) {
		g := polygon(`[[[500000, 6500000], [500100, 6500000], [500100, 6500200], [500000, 6500200], [500000, 6500000]]]`)
		box := g.BBox()
		if box == nil {
			t.Fatal("expected a bounding box")
		}
		want := BBox{MinX: 500000, MinY: 6500000, MaxX: 500100, MaxY: 6500200}
		if *box != want {
			t.Errorf("BBox = %+v, want %+v", *box, want)
		}
	})

	t.Run("multipolygon", func(t *testing.T) {
		g := &Geometry{
			Type:        "MultiPolygon",
			Coordinates: json.RawMessage(`[[[[0, 0], [10, 0], [10, 10], [0, 0]]], [[[20, 20], [30, 20], [30, 30], [20, 20]]]]`),
		}
		box := g.BBox()
		if box == nil {
			t.Fatal("expected a bounding box")
		}
		want := BBox{MinX: 0, MinY: 0, MaxX: 30, MaxY: 30}
		if *box != want {
			t.Errorf("BBox = %+v, want %+v", *box, want)
		}
	})

	t.Run("nil geometry", func(t *testing.T) {
		var g *Geometry
		if g.BBox() != nil {
			t.Error("expected nil box for nil geometry")
		}
	})

	t.Run("malformed coordinates", func(t *testing.T) {
		g := polygon(`not json`)
		if g.BBox() != nil {
			t.Error("expected nil box for malformed coordinates")
		}
	})
}

func TestUnion(t *testing.T) {
	a := &BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := &BBox{MinX: 5, MinY: -5, MaxX: 20, MaxY: 8}

	t.Run("both nil", func(t *testing.T) {
		if Union(nil, nil) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("one side", func(t *testing.T) {
		got := Union(a, nil)
		if got == nil || *got != *a {
			t.Errorf("Union(a, nil) = %+v, want %+v", got, *a)
		}
	})

	t.Run("covers both", func(t *testing.T) {
		got := Union(a, b)
		want := BBox{MinX: 0, MinY: -5, MaxX: 20, MaxY: 10}
		if got == nil || *got != want {
			t.Errorf("Union = %+v, want %+v", got, want)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		Union(a, b)
		if *a != (BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}) {
			t.Errorf("input box mutated: %+v", *a)
		}
	})
}

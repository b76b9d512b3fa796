// Package geo projects geographic geometries into local planar meters and
// measures their lengths and areas.
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// UnsupportedGeometryTypeError is returned when a measurement is requested
// for a geometry kind the engine does not handle.
type UnsupportedGeometryTypeError struct {
	Type string
}

func (e *UnsupportedGeometryTypeError) Error() string {
	return fmt.Sprintf("unsupported geometry type %s to measure", e.Type)
}

// Unsupported reports g as an unmeasurable geometry, naming its GeoJSON type
// when it has one.
func Unsupported(g orb.Geometry) error {
	if g == nil {
		return &UnsupportedGeometryTypeError{Type: "nil"}
	}
	if _, ok := g.(orb.Bound); ok {
		return &UnsupportedGeometryTypeError{Type: "Bound"}
	}
	return &UnsupportedGeometryTypeError{Type: g.GeoJSONType()}
}

// NewFeature builds a feature carrying id both as feature id and as the
// "id" property, the way drawn features are published.
func NewFeature(id string, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = id
	f.Properties["id"] = id
	return f
}

// CloneFeature deep-copies f so the copy can be handed to a renderer without
// sharing coordinates or properties with the owner.
func CloneFeature(f *geojson.Feature) *geojson.Feature {
	c := geojson.NewFeature(orb.Clone(f.Geometry))
	c.ID = f.ID
	for k, v := range f.Properties {
		c.Properties[k] = v
	}
	return c
}

// FeatureID returns the string form of the feature id, or "" when unset.
func FeatureID(f *geojson.Feature) string {
	if f == nil || f.ID == nil {
		return ""
	}
	if s, ok := f.ID.(string); ok {
		return s
	}
	return fmt.Sprint(f.ID)
}

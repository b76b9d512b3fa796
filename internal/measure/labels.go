// Package measure builds positioned length and area labels for geometries
// and keeps them in sync with digitized features.
package measure

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/dzmeasure/internal/geo"
)

// Kind is the geometry kind a label belongs to.
type Kind string

// Label kinds.
const (
	KindPoint      Kind = "Point"
	KindLineString Kind = "LineString"
	KindPolygon    Kind = "Polygon"
)

// Label is a piece of measurement text anchored at a position.
type Label struct {
	Position orb.Point
	Text     string
	Kind     Kind
	// SegmentCenter marks a single-segment length placed at the segment's
	// center, as opposed to a cumulative length at a vertex.
	SegmentCenter bool
}

// Feature renders l as a GeoJSON point with "value", "type" and, for segment
// labels, "center" properties.
func (l Label) Feature() *geojson.Feature {
	f := geojson.NewFeature(l.Position)
	f.Properties["value"] = l.Text
	f.Properties["type"] = string(l.Kind)
	if l.SegmentCenter {
		f.Properties["center"] = true
	}
	return f
}

// FeatureCollection renders labels as a new feature collection.
func FeatureCollection(labels []Label) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range labels {
		fc.Append(l.Feature())
	}
	return fc
}

// PointOptions configures point labels.
type PointOptions struct {
	// Format overrides the default "lon , lat" text.
	Format func(p orb.Point) string
}

// LineStringOptions configures line labels.
type LineStringOptions struct {
	// Format overrides the default "%.2f m" text. index is the vertex the
	// label belongs to, end marks the last vertex and center marks segment
	// labels.
	Format func(length float64, index int, end, center bool) string
	// OmitStart drops the zero cumulative label on the first vertex. Rings
	// use it so the first label does not cover the last one.
	OmitStart bool
}

// PolygonOptions configures polygon labels.
type PolygonOptions struct {
	// Format overrides the default "%.2f m²" text.
	Format func(area float64) string
	// OmitLineStrings skips the per-ring length labels.
	OmitLineStrings bool
	// LineString configures the per-ring length labels.
	LineString LineStringOptions
}

// Options configures Compute.
type Options struct {
	Point      PointOptions
	LineString LineStringOptions
	Polygon    PolygonOptions

	// Projector measures lengths and areas; nil means geo.Default.
	Projector *geo.Projector
}

func (o *Options) projector() *geo.Projector {
	if o == nil || o.Projector == nil {
		return geo.Default
	}
	return o.Projector
}

// Compute builds the labels of g. Multi-geometries and collections are
// walked recursively and their labels concatenated.
func Compute(g orb.Geometry, opts *Options) ([]Label, error) {
	if opts == nil {
		opts = &Options{}
	}

	switch g := g.(type) {
	case orb.Point:
		return pointLabels(g, &opts.Point), nil
	case orb.MultiPoint:
		var ret []Label
		for _, p := range g {
			ret = append(ret, pointLabels(p, &opts.Point)...)
		}
		return ret, nil
	case orb.LineString:
		return lineLabels(g, &opts.LineString, opts.projector())
	case orb.MultiLineString:
		var ret []Label
		for _, l := range g {
			labels, err := lineLabels(l, &opts.LineString, opts.projector())
			if err != nil {
				return nil, err
			}
			ret = append(ret, labels...)
		}
		return ret, nil
	case orb.Polygon:
		return polygonLabels(g, &opts.Polygon, opts.projector())
	case orb.MultiPolygon:
		var ret []Label
		for _, p := range g {
			labels, err := polygonLabels(p, &opts.Polygon, opts.projector())
			if err != nil {
				return nil, err
			}
			ret = append(ret, labels...)
		}
		return ret, nil
	case orb.Collection:
		var ret []Label
		for _, c := range g {
			labels, err := Compute(c, opts)
			if err != nil {
				return nil, err
			}
			ret = append(ret, labels...)
		}
		return ret, nil
	default:
		return nil, geo.Unsupported(g)
	}
}

// ComputeFeatures concatenates the labels of every feature geometry.
func ComputeFeatures(features []*geojson.Feature, opts *Options) ([]Label, error) {
	var ret []Label
	for _, f := range features {
		labels, err := Compute(f.Geometry, opts)
		if err != nil {
			if id := geo.FeatureID(f); id != "" {
				return nil, fmt.Errorf("feature %s: %w", id, err)
			}
			return nil, err
		}
		ret = append(ret, labels...)
	}
	return ret, nil
}

// ComputeMeasurement accepts an orb.Geometry, a *geojson.Geometry, a
// *geojson.Feature, a []*geojson.Feature or a *geojson.FeatureCollection
// and returns the label feature collection.
func ComputeMeasurement(v interface{}, opts *Options) (*geojson.FeatureCollection, error) {
	var (
		labels []Label
		err    error
	)

	switch v := v.(type) {
	case *geojson.FeatureCollection:
		labels, err = ComputeFeatures(v.Features, opts)
	case []*geojson.Feature:
		labels, err = ComputeFeatures(v, opts)
	case *geojson.Feature:
		labels, err = Compute(v.Geometry, opts)
	case *geojson.Geometry:
		labels, err = Compute(v.Geometry(), opts)
	case orb.Geometry:
		labels, err = Compute(v, opts)
	default:
		return nil, fmt.Errorf("measure %T: %w", v, &geo.UnsupportedGeometryTypeError{Type: fmt.Sprintf("%T", v)})
	}
	if err != nil {
		return nil, err
	}

	return FeatureCollection(labels), nil
}

func pointLabels(p orb.Point, opts *PointOptions) []Label {
	text := ""
	if opts.Format != nil {
		text = opts.Format(p)
	}
	if text == "" {
		text = fmt.Sprintf("%.6f , %.6f", p[0], p[1])
	}
	return []Label{{Position: p, Text: text, Kind: KindPoint}}
}

func lineLabels(line []orb.Point, opts *LineStringOptions, proj *geo.Projector) ([]Label, error) {
	format := func(length float64, i int, end, center bool) string {
		if opts.Format != nil {
			if s := opts.Format(length, i, end, center); s != "" {
				return s
			}
		}
		return fmt.Sprintf("%.2f m", length)
	}

	ret := make([]Label, 0, 2*len(line))
	sum := 0.

	for i, current := range line {
		if i > 0 {
			segment := orb.LineString{line[i-1], current}
			length, err := proj.LineLength(segment)
			if err != nil {
				return nil, err
			}
			sum += length

			ret = append(ret, Label{
				Position:      geo.Centroid(segment),
				Text:          format(length, i, false, true),
				Kind:          KindLineString,
				SegmentCenter: true,
			})
		}

		if opts.OmitStart && i == 0 {
			continue
		}

		ret = append(ret, Label{
			Position: current,
			Text:     format(sum, i, i == len(line)-1, false),
			Kind:     KindLineString,
		})
	}

	return ret, nil
}

func polygonLabels(poly orb.Polygon, opts *PolygonOptions, proj *geo.Projector) ([]Label, error) {
	var ret []Label

	if !opts.OmitLineStrings {
		for _, r := range poly {
			labels, err := lineLabels(r, &opts.LineString, proj)
			if err != nil {
				return nil, err
			}
			ret = append(ret, labels...)
		}
	}

	// an outer ring of three coordinates is an in-progress triangle, not a polygon
	if len(poly) == 0 || len(poly[0]) <= 3 {
		return ret, nil
	}

	area, err := proj.Area(poly)
	if err != nil {
		return nil, err
	}

	text := ""
	if opts.Format != nil {
		text = opts.Format(area)
	}
	if text == "" {
		text = fmt.Sprintf("%.2f m²", area)
	}

	return append(ret, Label{Position: geo.Centroid(poly), Text: text, Kind: KindPolygon}), nil
}

package geo

import (
	"github.com/paulmach/orb"
)

// Projector measures geographic geometries in planar meters. Every line and
// every ring is projected on its own, so the local projection fits each of
// them.
type Projector struct {
	Projection Projection
}

// NewProjector returns a projector using p, or LocalTransverseMercator when
// p is nil.
func NewProjector(p Projection) *Projector {
	if p == nil {
		p = LocalTransverseMercator
	}
	return &Projector{Projection: p}
}

// Default measures with LocalTransverseMercator.
var Default = NewProjector(nil)

func (p *Projector) projection() Projection {
	if p == nil || p.Projection == nil {
		return LocalTransverseMercator
	}
	return p.Projection
}

// LineLength returns the planar length of an open polyline.
func (p *Projector) LineLength(coords []orb.Point) (float64, error) {
	if len(coords) < 2 {
		return 0, nil
	}
	projected, err := p.projection().Project(coords)
	if err != nil {
		return 0, err
	}
	return PlanarLength(projected), nil
}

// RingArea returns the planar area enclosed by a ring.
func (p *Projector) RingArea(coords []orb.Point) (float64, error) {
	if len(coords) < 3 {
		return 0, nil
	}
	projected, err := p.projection().Project(coords)
	if err != nil {
		return 0, err
	}
	return PlanarArea(projected), nil
}

// Length returns the total length of g. Polygon rings count as lines;
// points count as 0.
func (p *Projector) Length(g orb.Geometry) (float64, error) {
	switch g := g.(type) {
	case orb.Point, orb.MultiPoint:
		return 0, nil
	case orb.LineString:
		return p.LineLength(g)
	case orb.Ring:
		return p.LineLength(g)
	case orb.MultiLineString:
		return p.sumLines(len(g), func(i int) []orb.Point { return g[i] })
	case orb.Polygon:
		return p.sumLines(len(g), func(i int) []orb.Point { return g[i] })
	case orb.MultiPolygon:
		total := 0.
		for _, poly := range g {
			l, err := p.Length(poly)
			if err != nil {
				return 0, err
			}
			total += l
		}
		return total, nil
	case orb.Collection:
		total := 0.
		for _, c := range g {
			l, err := p.Length(c)
			if err != nil {
				return 0, err
			}
			total += l
		}
		return total, nil
	default:
		return 0, Unsupported(g)
	}
}

func (p *Projector) sumLines(n int, line func(int) []orb.Point) (float64, error) {
	total := 0.
	for i := 0; i < n; i++ {
		l, err := p.LineLength(line(i))
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// Area returns the area of g. A polygon's holes are subtracted from its
// exterior ring; multi-polygons and collections sum their members. Points
// and lines have no area.
func (p *Projector) Area(g orb.Geometry) (float64, error) {
	switch g := g.(type) {
	case orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString:
		return 0, nil
	case orb.Ring:
		return p.RingArea(g)
	case orb.Polygon:
		return p.polygonArea(g)
	case orb.MultiPolygon:
		total := 0.
		for _, poly := range g {
			a, err := p.polygonArea(poly)
			if err != nil {
				return 0, err
			}
			total += a
		}
		return total, nil
	case orb.Collection:
		total := 0.
		for _, c := range g {
			a, err := p.Area(c)
			if err != nil {
				return 0, err
			}
			total += a
		}
		return total, nil
	default:
		return 0, Unsupported(g)
	}
}

func (p *Projector) polygonArea(poly orb.Polygon) (float64, error) {
	area := 0.
	for i, r := range poly {
		a, err := p.RingArea(r)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			area = a
			continue
		}
		area -= a
	}
	return area, nil
}

// Length measures g with the default projector.
func Length(g orb.Geometry) (float64, error) {
	return Default.Length(g)
}

// Area measures g with the default projector.
func Area(g orb.Geometry) (float64, error) {
	return Default.Area(g)
}

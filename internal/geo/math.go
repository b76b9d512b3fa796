package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// PlanarLength sums the distances between consecutive points of an open
// polyline in planar coordinates. Fewer than two points yield 0.
func PlanarLength(points []orb.Point) float64 {
	length := 0.
	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		length += math.Hypot(p2[0]-p1[0], p2[1]-p1[1])
	}
	return length
}

// PlanarArea applies the shoelace formula to a ring in planar coordinates.
// The ring is closed implicitly, so a trailing copy of the first point is
// optional. Fewer than three points yield 0.
func PlanarArea(points []orb.Point) float64 {
	if len(points) < 3 {
		return 0
	}

	sum := 0.
	for i, current := range points {
		next := points[0]
		if i < len(points)-1 {
			next = points[i+1]
		}
		sum += current[0]*next[1] - current[1]*next[0]
	}

	return math.Abs(0.5 * sum)
}

// Clockwise reports whether the ring winds clockwise by the sign of its
// signed area. Rings with fewer than three points are never clockwise.
func Clockwise(ring []orb.Point) bool {
	if len(ring) < 3 {
		return false
	}
	return orb.Ring(ring).Orientation() == orb.CW
}

// Centroid returns the mean of the vertices of g. The closing vertex of a
// closed ring is not counted twice.
func Centroid(g orb.Geometry) orb.Point {
	var sx, sy float64
	n := 0
	add := func(points []orb.Point) {
		for _, p := range points {
			sx += p[0]
			sy += p[1]
			n++
		}
	}

	var walk func(orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Point:
			add([]orb.Point{g})
		case orb.MultiPoint:
			add(g)
		case orb.LineString:
			add(g)
		case orb.MultiLineString:
			for _, l := range g {
				add(l)
			}
		case orb.Ring:
			add(openRing(g))
		case orb.Polygon:
			for _, r := range g {
				add(openRing(r))
			}
		case orb.MultiPolygon:
			for _, p := range g {
				walk(p)
			}
		case orb.Collection:
			for _, c := range g {
				walk(c)
			}
		}
	}
	walk(g)

	if n == 0 {
		return orb.Point{}
	}
	return orb.Point{sx / float64(n), sy / float64(n)}
}

// openRing drops the closing duplicate of a closed ring.
func openRing(r []orb.Point) []orb.Point {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

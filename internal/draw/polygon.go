package draw

import (
	"github.com/paulmach/orb"

	"github.com/woozymasta/dzmeasure/internal/geo"
)

const minPolygonVertices = 3

// polygonMachine draws a single exterior ring without holes.
type polygonMachine struct{}

func (m polygonMachine) step(s sketch, ev Event, newID func() string) (sketch, []intent) {
	if !s.drawing() {
		if ev.Kind != Click {
			return s, nil
		}
		return sketch{id: newID(), vertices: []orb.Point{ev.Pos}}, []intent{render()}
	}

	switch ev.Kind {
	case Click:
		if s.pairClick(ev.Pos) {
			return s, nil
		}
		next := s.withVertex(ev.Pos)
		next.tracking = false
		return next, []intent{render(), preview(closingPreview(next.vertices))}

	case Move:
		next := s.following(ev.Pos)
		return next, []intent{render(), preview(closingPreview(next.vertices))}

	case DoubleClick:
		if len(s.vertices) < minPolygonVertices {
			return sketch{}, []intent{discard(s.id), preview(nil)}
		}
		ring := closeRing(s.vertices)
		return sketch{}, []intent{commit(s.id, orb.Polygon{ring}), preview(nil)}

	case RightClick:
		if len(s.vertices) <= 1 {
			return sketch{}, []intent{abort(s.id), preview(nil)}
		}
		// pop the last vertex, then resynthesize the ring as a move would
		return m.step(s.withoutLast(), Event{Kind: Move, Pos: ev.Pos}, newID)
	}

	return s, nil
}

func (polygonMachine) geometry(s sketch) orb.Geometry {
	return orb.Polygon{renderRing(s.vertices, s.pointer, s.tracking)}
}

func (polygonMachine) properties(s sketch) map[string]interface{} {
	if len(s.vertices) < minPolygonVertices {
		return nil
	}
	ring := renderRing(s.vertices, s.pointer, s.tracking)
	return map[string]interface{}{"clockwise": geo.Clockwise(ring)}
}

func (polygonMachine) undo(s sketch) (orb.Point, bool) {
	if !s.drawing() {
		return orb.Point{}, false
	}
	return s.last(), true
}

// renderRing derives the ring shown while drawing: the confirmed vertices,
// the pointer when it is tracked, and the first vertex again once there are
// at least three positions, so the ring stays visually closed.
func renderRing(vertices []orb.Point, pointer orb.Point, tracking bool) orb.Ring {
	ring := make(orb.Ring, 0, len(vertices)+2)
	ring = append(ring, vertices...)
	if tracking {
		ring = append(ring, pointer)
	}
	if len(ring) >= minPolygonVertices {
		ring = append(ring, ring[0])
	}
	return ring
}

// closingPreview is the auxiliary line from the last confirmed vertex back to
// the first one, shown only while exactly two vertices are confirmed.
func closingPreview(vertices []orb.Point) orb.Geometry {
	if len(vertices) != 2 {
		return nil
	}
	return orb.LineString{vertices[1], vertices[0]}
}

func closeRing(vertices []orb.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(vertices)+1)
	ring = append(ring, vertices...)
	return append(ring, vertices[0])
}

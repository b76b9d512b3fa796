package draw

import (
	"github.com/paulmach/orb"
)

// Type names a geometry kind a digitizer produces.
type Type string

// Digitizer kinds.
const (
	TypePoint      Type = "Point"
	TypeLineString Type = "LineString"
	TypePolygon    Type = "Polygon"
)

// Types lists the digitizer kinds in a stable order.
var Types = []Type{TypePoint, TypeLineString, TypePolygon}

// sketch is the in-progress geometry: confirmed vertices plus the phantom
// vertex following the pointer. A zero sketch means nothing is being drawn.
type sketch struct {
	id       string
	vertices []orb.Point
	pointer  orb.Point
	tracking bool
}

func (s sketch) drawing() bool {
	return s.id != ""
}

func (s sketch) last() orb.Point {
	return s.vertices[len(s.vertices)-1]
}

// withVertex returns a copy of s with p appended. The vertex slice is never
// shared between sketches.
func (s sketch) withVertex(p orb.Point) sketch {
	v := make([]orb.Point, len(s.vertices), len(s.vertices)+1)
	copy(v, s.vertices)
	s.vertices = append(v, p)
	return s
}

func (s sketch) withoutLast() sketch {
	s.vertices = s.vertices[:len(s.vertices)-1:len(s.vertices)-1]
	return s
}

func (s sketch) following(p orb.Point) sketch {
	s.pointer = p
	s.tracking = true
	return s
}

// pairClick reports whether a click at p is the second click of a
// double-click pair: it lands on the vertex the previous click confirmed
// and so introduces no new vertex.
func (s sketch) pairClick(p orb.Point) bool {
	return len(s.vertices) > 0 && s.last() == p
}

type intentKind int

const (
	// intentRender republishes the in-progress feature.
	intentRender intentKind = iota
	// intentCommit finalizes geometry under id.
	intentCommit
	// intentDiscard drops the in-progress feature without committing.
	intentDiscard
	// intentPreview replaces the auxiliary closing line; nil clears it.
	intentPreview
)

// intent is a side effect requested by a transition. Transitions are pure;
// the digitizer applies intents in order.
type intent struct {
	kind     intentKind
	id       string
	geometry orb.Geometry
	reason   string
}

// Reasons carried by discard intents.
const (
	reasonTooFewVertices = "below minimum vertex count"
	reasonAborted        = "aborted"
)

func render() intent { return intent{kind: intentRender} }

func commit(id string, g orb.Geometry) intent {
	return intent{kind: intentCommit, id: id, geometry: g}
}

func discard(id string) intent {
	return intent{kind: intentDiscard, id: id, reason: reasonTooFewVertices}
}

// abort drops the in-progress feature on user request.
func abort(id string) intent { return intent{kind: intentDiscard, id: id, reason: reasonAborted} }

func preview(g orb.Geometry) intent { return intent{kind: intentPreview, geometry: g} }

// machine is the per-type transition table.
type machine interface {
	// step computes the next sketch and the side effects of ev. newID is
	// called when a new in-progress feature starts.
	step(s sketch, ev Event, newID func() string) (sketch, []intent)
	// geometry derives the rendered in-progress geometry, phantom included.
	geometry(s sketch) orb.Geometry
	// properties adds type-specific render properties.
	properties(s sketch) map[string]interface{}
	// undo returns the position back() fires the undo handler at.
	undo(s sketch) (orb.Point, bool)
}

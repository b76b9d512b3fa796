package draw

import "github.com/paulmach/orb"

const minLineVertices = 2

type lineMachine struct{}

func (m lineMachine) step(s sketch, ev Event, newID func() string) (sketch, []intent) {
	if !s.drawing() {
		// move and right-click are only listened to once drawing started
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
		return s.withVertex(ev.Pos).following(ev.Pos), []intent{render()}

	case Move:
		return s.following(ev.Pos), []intent{render()}

	case DoubleClick:
		if len(s.vertices) < minLineVertices {
			return sketch{}, []intent{discard(s.id)}
		}
		return sketch{}, []intent{commit(s.id, orb.LineString(s.vertices))}

	case RightClick:
		if len(s.vertices) <= 1 {
			return sketch{}, []intent{abort(s.id)}
		}
		return s.withoutLast().following(ev.Pos), []intent{render()}
	}

	return s, nil
}

func (lineMachine) geometry(s sketch) orb.Geometry {
	ls := make(orb.LineString, 0, len(s.vertices)+1)
	ls = append(ls, s.vertices...)
	if s.tracking {
		ls = append(ls, s.pointer)
	}
	return ls
}

func (lineMachine) properties(sketch) map[string]interface{} { return nil }

func (lineMachine) undo(s sketch) (orb.Point, bool) {
	if !s.drawing() {
		return orb.Point{}, false
	}
	return s.last(), true
}

package draw

import "github.com/paulmach/orb"

// pointMachine commits a point for every click. It never holds an
// in-progress feature.
type pointMachine struct{}

func (pointMachine) step(s sketch, ev Event, newID func() string) (sketch, []intent) {
	if ev.Kind != Click {
		return s, nil
	}
	return s, []intent{commit(newID(), ev.Pos)}
}

func (pointMachine) geometry(sketch) orb.Geometry { return nil }

func (pointMachine) properties(sketch) map[string]interface{} { return nil }

func (pointMachine) undo(sketch) (orb.Point, bool) { return orb.Point{}, false }

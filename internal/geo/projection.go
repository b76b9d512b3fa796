package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/golang/groupcache/lru"
	"github.com/paulmach/orb"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	projCacheSize = 256
)

// Projection maps one geographic coordinate sequence (a line or a ring,
// lon/lat degrees) to planar coordinates.
type Projection interface {
	Project(coords []orb.Point) ([]orb.Point, error)
}

// Expr is a fixed proj4 projection expression applied to every sequence.
type Expr string

// Project implements Projection.
func (e Expr) Project(coords []orb.Point) ([]orb.Point, error) {
	return projectExpr(string(e), coords)
}

// ExprFunc derives the proj4 expression from the sequence being projected.
type ExprFunc func(coords []orb.Point) string

// Project implements Projection.
func (f ExprFunc) Project(coords []orb.Point) ([]orb.Point, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	return projectExpr(f(coords), coords)
}

type planar struct{}

func (planar) Project(coords []orb.Point) ([]orb.Point, error) {
	return coords, nil
}

// Planar leaves coordinates untouched; use it for input already in a
// Cartesian system.
var Planar Projection = planar{}

// LocalTransverseMercator is the default projection: a transverse Mercator
// whose central meridian is the smallest longitude of the sequence.
var LocalTransverseMercator Projection = ExprFunc(LocalTMExpr)

// LocalTMExpr builds the transverse Mercator expression centered on the
// minimum longitude of coords.
func LocalTMExpr(coords []orb.Point) string {
	lon0 := math.MaxFloat64
	for _, c := range coords {
		lon0 = math.Min(lon0, c[0])
	}
	if len(coords) == 0 {
		lon0 = 0
	}

	return "+proj=tmerc +lat_0=0 +lon_0=" + strconv.FormatFloat(lon0, 'f', -1, 64) +
		" +k=1 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs"
}

type transform struct {
	forward proj.Transformer
	toMeter float64
	longlat bool
}

var (
	projMu    sync.Mutex
	projCache = lru.New(projCacheSize)
)

// transformFor parses expr once and keeps the forward transformer in an LRU
// cache, since the local projection changes with every geometry.
func transformFor(expr string) (*transform, error) {
	projMu.Lock()
	defer projMu.Unlock()

	if v, ok := projCache.Get(expr); ok {
		return v.(*transform), nil
	}

	sr, err := proj.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse projection %q: %w", expr, err)
	}
	forward, _, err := sr.Transformers()
	if err != nil {
		return nil, fmt.Errorf("projection %q: %w", expr, err)
	}

	t := &transform{forward: forward, toMeter: sr.ToMeter, longlat: sr.Name == "longlat"}
	if math.IsNaN(t.toMeter) || t.toMeter == 0 {
		t.toMeter = 1
	}
	projCache.Add(expr, t)

	return t, nil
}

func projectExpr(expr string, coords []orb.Point) ([]orb.Point, error) {
	t, err := transformFor(expr)
	if err != nil {
		return nil, err
	}

	out := make([]orb.Point, len(coords))
	for i, c := range coords {
		x, y, err := t.forward(c[0]*deg2rad, c[1]*deg2rad)
		if err != nil {
			return nil, fmt.Errorf("project %v: %w", c, err)
		}
		if t.longlat {
			out[i] = orb.Point{x * rad2deg, y * rad2deg}
			continue
		}
		out[i] = orb.Point{x / t.toMeter, y / t.toMeter}
	}

	return out, nil
}

// Projection names accepted by ParseProjection besides proj4 expressions.
const (
	ProjectionLocalTM = "local-tm"
	ProjectionPlanar  = "planar"
)

// ParseProjection resolves a projection name or a proj4 expression. An
// empty name selects LocalTransverseMercator. Expressions are parsed
// eagerly so configuration errors surface before measuring.
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ProjectionLocalTM:
		return LocalTransverseMercator, nil
	case ProjectionPlanar:
		return Planar, nil
	}

	if !strings.HasPrefix(strings.TrimSpace(s), "+") {
		return nil, fmt.Errorf("unknown projection %q", s)
	}
	expr := strings.TrimSpace(s)
	if _, err := transformFor(expr); err != nil {
		return nil, err
	}
	return Expr(expr), nil
}

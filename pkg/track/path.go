package track

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/tiletrack/tiletrack-go/pkg/model"
)

var (
	ErrTooFewWaypoints = errors.New("track needs at least 3 waypoints")
	ErrOpenCircuit     = errors.New("tiles do not close into a single cycle")
	ErrFinishCount     = errors.New("track needs exactly one finish tile")
)

// FarAway is the sentinel distance reported by queries on a degenerate path.
const FarAway = 1e9

// Sample is a point on the centerline. Normal is Tangent rotated 90 degrees
// and is the axis along which lateral offset is measured.
type Sample struct {
	Pos     r2.Vec
	Tangent r2.Vec
	Normal  r2.Vec
}

// Projection is the result of a nearest-point query.
type Projection struct {
	Pos r2.Vec
	// arc length at the projected point
	S float64
	// signed distance along the local normal
	Lateral float64
	// unsigned distance from query point to the centerline
	Dist float64
}

// Zone is an arc-length range with a minimum-speed rule (loop tiles).
type Zone struct {
	Start float64
	End   float64
}

// FinishSeg is the finish line segment, perpendicular to the path at the
// finish tile center.
type FinishSeg struct {
	A r2.Vec
	B r2.Vec
}

// Path is the derived, read-only centerline of a track. It is rebuilt
// wholesale whenever the track definition changes and never mutated in place.
// A Path built from an invalid definition is degenerate: total length 0,
// all queries return safe fallbacks and Err reports why.
type Path struct {
	pts    []r2.Vec
	cum    []float64
	total  float64
	finish *FinishSeg
	zones  []Zone
	err    error
}

func degenerate(err error) *Path {
	return &Path{err: err}
}

// Build derives a Path from a track definition. It never fails into the
// caller; invalid input yields a degenerate path carrying the reason.
func Build(def *model.TrackDef) *Path {
	if def == nil {
		return degenerate(ErrTooFewWaypoints)
	}
	if len(def.Waypoints) > 0 {
		return buildFromWaypoints(def.Waypoints)
	}
	tiles := def.Tiles
	if len(tiles) == 0 {
		if p := PresetByID(def.PresetID); p != nil {
			tiles = p.Tiles
		}
	}
	return buildFromTiles(tiles)
}

func buildFromWaypoints(wpts []model.Point) *Path {
	pts := make([]r2.Vec, 0, len(wpts)+1)
	for _, w := range wpts {
		pts = append(pts, r2.Vec{X: w.X, Y: w.Y})
	}
	// closed polyline invariant: first == last
	if norm(pts[len(pts)-1].Sub(pts[0])) > 1e-9 {
		pts = append(pts, pts[0])
	}
	if len(pts) < 4 {
		return degenerate(ErrTooFewWaypoints)
	}
	p := &Path{pts: pts}
	p.computeLengths()
	return p
}

type placedTile struct {
	tile  model.Tile
	shape *shape
}

func cellKey(x, y int) string { return fmt.Sprintf("%d,%d", x, y) }

//nolint:funlen,cyclop // track assembly is one coherent walk
func buildFromTiles(tiles []model.Tile) *Path {
	// later tiles overwrite earlier ones on the same cell; the preset
	// catalogue relies on this to stamp the finish over a straight
	grid := make(map[string]*placedTile)
	order := make([]string, 0, len(tiles))
	for _, t := range tiles {
		s, ok := shapeFor(t.Kind, t.Rot)
		if !ok {
			continue
		}
		k := cellKey(t.X, t.Y)
		if _, seen := grid[k]; !seen {
			order = append(order, k)
		}
		grid[k] = &placedTile{tile: t, shape: s}
	}
	if len(grid) < 3 {
		return degenerate(ErrTooFewWaypoints)
	}

	var finishTile *placedTile
	finishCount := 0
	for _, k := range order {
		item := grid[k]
		if item.shape.finish {
			finishCount++
			finishTile = item
		}
		// degree check: both connectors need a reciprocal neighbor
		for _, d := range []dir{item.shape.in, item.shape.out} {
			dx, dy := d.offset()
			n := grid[cellKey(item.tile.X+dx, item.tile.Y+dy)]
			if n == nil || !n.shape.connects(d.opposite()) {
				return degenerate(ErrOpenCircuit)
			}
		}
	}
	if finishCount != 1 {
		return degenerate(ErrFinishCount)
	}

	// walk the cycle starting at the finish tile, concatenating each tile's
	// local curve and dropping the duplicated shared endpoints
	p := &Path{}
	visited := make(map[string]bool, len(grid))
	length := 0.0
	cur := finishTile
	for cur != nil && !visited[cellKey(cur.tile.X, cur.tile.Y)] {
		visited[cellKey(cur.tile.X, cur.tile.Y)] = true
		world := make([]r2.Vec, len(cur.shape.pts))
		for i, lp := range cur.shape.pts {
			world[i] = r2.Vec{
				X: float64(cur.tile.X)*TileSize + lp.X,
				Y: float64(cur.tile.Y)*TileSize + lp.Y,
			}
		}
		zoneStart := length
		if len(p.pts) > 0 {
			world = world[1:]
		}
		for _, w := range world {
			if len(p.pts) > 0 {
				length += norm(w.Sub(p.pts[len(p.pts)-1]))
			}
			p.pts = append(p.pts, w)
		}
		if cur.shape.loop {
			p.zones = append(p.zones, Zone{Start: zoneStart, End: length})
		}
		dx, dy := cur.shape.out.offset()
		cur = grid[cellKey(cur.tile.X+dx, cur.tile.Y+dy)]
	}
	if len(visited) != len(grid) {
		return degenerate(ErrOpenCircuit)
	}
	// the last tile's exit must hand back to the finish tile
	if cur != finishTile {
		return degenerate(ErrOpenCircuit)
	}
	if norm(p.pts[len(p.pts)-1].Sub(p.pts[0])) > 1e-6 {
		return degenerate(ErrOpenCircuit)
	}
	p.computeLengths()
	p.finish = finishSegment(finishTile)
	return p
}

func finishSegment(ft *placedTile) *FinishSeg {
	mid := r2.Vec{
		X: float64(ft.tile.X)*TileSize + tileCenter,
		Y: float64(ft.tile.Y)*TileSize + tileCenter,
	}
	perp := r2.Vec{X: 0, Y: 1}
	if ft.shape.out == dirUp || ft.shape.out == dirDown {
		perp = r2.Vec{X: 1, Y: 0}
	}
	const half = 60.0
	return &FinishSeg{
		A: mid.Sub(perp.Scale(half)),
		B: mid.Add(perp.Scale(half)),
	}
}

func (p *Path) computeLengths() {
	p.cum = make([]float64, len(p.pts))
	for i := 1; i < len(p.pts); i++ {
		p.cum[i] = p.cum[i-1] + norm(p.pts[i].Sub(p.pts[i-1]))
	}
	p.total = p.cum[len(p.cum)-1]
	if p.total <= 0 {
		p.err = ErrTooFewWaypoints
		p.pts = nil
		p.cum = nil
		p.total = 0
	}
}

func (p *Path) Err() error      { return p.err }
func (p *Path) Drivable() bool  { return p.err == nil && p.total > 0 }
func (p *Path) Total() float64  { return p.total }
func (p *Path) Points() []r2.Vec { return p.pts }

func (p *Path) Finish() *FinishSeg { return p.finish }

func (p *Path) Zones() []Zone { return p.zones }

// Progress normalizes an arc length into [0,1).
func (p *Path) Progress(s float64) float64 {
	if p.total <= 0 {
		return 0
	}
	s = math.Mod(s, p.total)
	if s < 0 {
		s += p.total
	}
	return s / p.total
}

// InLoopZone reports whether the arc length lies inside a loop-gate zone.
func (p *Path) InLoopZone(s float64) bool {
	if p.total <= 0 {
		return false
	}
	s = math.Mod(s, p.total)
	if s < 0 {
		s += p.total
	}
	for _, z := range p.zones {
		if s >= z.Start && s <= z.End {
			return true
		}
	}
	return false
}

// SampleAt returns the path point at arc length s. The argument is taken
// modulo the total length, wrap-around is always legal.
func (p *Path) SampleAt(s float64) Sample {
	if p.total <= 0 || len(p.pts) < 2 {
		return Sample{
			Tangent: r2.Vec{X: 1},
			Normal:  r2.Vec{X: 0, Y: 1},
		}
	}
	s = math.Mod(s, p.total)
	if s < 0 {
		s += p.total
	}
	i := sort.SearchFloat64s(p.cum, s)
	if i == 0 {
		i = 1
	}
	if i >= len(p.pts) {
		i = len(p.pts) - 1
	}
	a, b := p.pts[i-1], p.pts[i]
	segLen := p.cum[i] - p.cum[i-1]
	t := 0.0
	if segLen > 0 {
		t = (s - p.cum[i-1]) / segLen
	}
	tan := unit(b.Sub(a))
	return Sample{
		Pos:     a.Add(b.Sub(a).Scale(t)),
		Tangent: tan,
		Normal:  leftNormal(tan),
	}
}

// Nearest projects the point orthogonally onto every segment and keeps the
// minimum-distance projection. On exact ties the first segment in path order
// wins.
func (p *Path) Nearest(pt r2.Vec) Projection {
	if len(p.pts) < 2 {
		return Projection{Pos: pt, Lateral: FarAway, Dist: FarAway}
	}
	best := Projection{Pos: p.pts[0], Dist: math.Inf(1)}
	for i := 1; i < len(p.pts); i++ {
		a, b := p.pts[i-1], p.pts[i]
		proj, u := projectOnSegment(pt, a, b)
		d := norm(pt.Sub(proj))
		if d < best.Dist {
			segLen := p.cum[i] - p.cum[i-1]
			tan := unit(b.Sub(a))
			best = Projection{
				Pos:     proj,
				S:       p.cum[i-1] + u*segLen,
				Lateral: dot(pt.Sub(proj), leftNormal(tan)),
				Dist:    d,
			}
		}
	}
	return best
}

func projectOnSegment(pt, a, b r2.Vec) (proj r2.Vec, u float64) {
	v := b.Sub(a)
	vv := dot(v, v)
	if vv == 0 {
		return a, 0
	}
	u = dot(pt.Sub(a), v) / vv
	u = math.Max(0, math.Min(1, u))
	return a.Add(v.Scale(u)), u
}

func norm(v r2.Vec) float64 { return math.Hypot(v.X, v.Y) }

func dot(a, b r2.Vec) float64 { return a.X*b.X + a.Y*b.Y }

func unit(v r2.Vec) r2.Vec {
	n := norm(v)
	if n == 0 {
		return r2.Vec{X: 1}
	}
	return v.Scale(1 / n)
}

func leftNormal(t r2.Vec) r2.Vec { return r2.Vec{X: -t.Y, Y: t.X} }

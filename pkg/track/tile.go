package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/tiletrack/tiletrack-go/pkg/model"
)

// TileSize is the edge length of one grid cell in world units.
const TileSize = 120.0

const tileCenter = TileSize / 2

// grid direction of a tile connector
type dir int

const (
	dirUp dir = iota
	dirRight
	dirDown
	dirLeft
)

func (d dir) offset() (dx, dy int) {
	switch d {
	case dirUp:
		return 0, -1
	case dirRight:
		return 1, 0
	case dirDown:
		return 0, 1
	default:
		return -1, 0
	}
}

func (d dir) opposite() dir { return (d + 2) & 3 }

func (d dir) rotated(quarters int) dir {
	return (d + dir(quarters)) & 3
}

// shape is a tile kind resolved to a concrete rotation: its local sample
// curve plus the two directional connectors.
type shape struct {
	kind   model.TileKind
	rot    int
	pts    []r2.Vec
	in     dir
	out    dir
	finish bool
	loop   bool
}

type baseShape struct {
	in, out dir
	pts     []r2.Vec
	finish  bool
	loop    bool
}

// Base shapes at rot=0. Straight runs left -> right, the curve is a quarter
// arc left -> up. Finish and loop tiles reuse the straight geometry and only
// differ in their zone metadata.
var baseShapes = map[model.TileKind]baseShape{
	model.TileStraight: {
		in: dirLeft, out: dirRight,
		pts: []r2.Vec{{X: 0, Y: tileCenter}, {X: TileSize, Y: tileCenter}},
	},
	model.TileFinish: {
		in: dirLeft, out: dirRight,
		pts:    []r2.Vec{{X: 0, Y: tileCenter}, {X: TileSize, Y: tileCenter}},
		finish: true,
	},
	model.TileLoop: {
		in: dirLeft, out: dirRight,
		pts:  []r2.Vec{{X: 0, Y: tileCenter}, {X: TileSize, Y: tileCenter}},
		loop: true,
	},
	model.TileCurve: {
		in: dirLeft, out: dirUp,
		pts: arcPoints(tileCenter, tileCenter, tileCenter,
			math.Pi, math.Pi*1.5, 10),
	},
}

func arcPoints(cx, cy, r, a0, a1 float64, n int) []r2.Vec {
	pts := make([]r2.Vec, 0, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts = append(pts, r2.Vec{
			X: cx + math.Cos(a)*r,
			Y: cy + math.Sin(a)*r,
		})
	}
	return pts
}

// rotatePoint rotates a tile-local point by 90 degree steps around the tile.
func rotatePoint(p r2.Vec, quarters int) r2.Vec {
	x, y := p.X, p.Y
	for i := 0; i < quarters; i++ {
		x, y = TileSize-y, x
	}
	return r2.Vec{X: x, Y: y}
}

// shapeFor resolves a tile kind and rotation. Rotation is normalized to
// 90 degree multiples.
func shapeFor(kind model.TileKind, rot int) (*shape, bool) {
	base, ok := baseShapes[kind]
	if !ok {
		return nil, false
	}
	quarters := ((rot/90)%4 + 4) % 4
	pts := make([]r2.Vec, len(base.pts))
	for i, p := range base.pts {
		pts[i] = rotatePoint(p, quarters)
	}
	return &shape{
		kind:   kind,
		rot:    quarters * 90,
		pts:    pts,
		in:     base.in.rotated(quarters),
		out:    base.out.rotated(quarters),
		finish: base.finish,
		loop:   base.loop,
	}, true
}

// connects reports whether the shape has a connector facing the given
// direction.
func (s *shape) connects(wanted dir) bool {
	return s.in == wanted || s.out == wanted
}

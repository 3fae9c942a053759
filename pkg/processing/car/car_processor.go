package car

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/track"
)

// Params holds the arcade dynamics tunables. Values are per second unless
// noted otherwise.
type Params struct {
	MaxDt     float64 // upper bound for one integration step
	AccelRate float64
	BrakeRate float64
	DragRate  float64 // exponential decay rate
	MaxSpeed  float64
	SteerRate float64 // rad/s at full authority
	TiltBlend float64 // tilt contribution blended into steer
	// speed at which full steering authority is reached; below it the
	// steering response scales down so cars cannot spin in place
	LowSpeedRef     float64
	OffTrackPenalty float64 // speed multiplier applied on boundary contact
	WallRestitution float64
	// inter-car collision
	CollisionDist   float64
	CarRestitution  float64
	BumpPenalty     float64
	// loop gate
	LoopMinSpeed float64
	LoopPenalty  float64
	LoopBoost    float64
}

func DefaultParams() Params {
	return Params{
		MaxDt:           0.05,
		AccelRate:       420,
		BrakeRate:       520,
		DragRate:        0.91,
		MaxSpeed:        620,
		SteerRate:       2.2,
		TiltBlend:       0.9,
		LowSpeedRef:     60,
		OffTrackPenalty: 0.92,
		WallRestitution: 0.4,
		CollisionDist:   22,
		CarRestitution:  0.5,
		BumpPenalty:     0.95,
		LoopMinSpeed:    260,
		LoopPenalty:     0.35,
		LoopBoost:       120,
	}
}

// Processor integrates car state against the current path. It never raises
// errors; out-of-range input is clamped, degenerate geometry falls back to
// the path's sentinel answers.
type Processor struct {
	params    Params
	path      *track.Path
	halfWidth float64
	log       *log.Logger
}

type Option func(*Processor)

func WithParams(params Params) Option {
	return func(p *Processor) {
		p.params = params
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

func NewProcessor(opts ...Option) *Processor {
	ret := &Processor{
		params: DefaultParams(),
		log:    log.Default().Named("sim.car"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Processor) Params() Params { return p.params }

// SetPath installs the rebuilt path. Called whenever the track definition
// changes; the old path keeps serving queries until replaced here.
func (p *Processor) SetPath(path *track.Path, width float64) {
	p.path = path
	p.halfWidth = width / 2
	p.log.Debug("path installed",
		log.Float64("total", path.Total()),
		log.Float64("halfWidth", p.halfWidth))
}

func (p *Processor) HalfWidth() float64 { return p.halfWidth }

// Step advances one car by dt seconds using the given control sample.
//
//nolint:funlen // one tick is one readable sequence
func (p *Processor) Step(c *model.Car, in model.Input, dt float64) {
	if c == nil || p.path == nil || dt <= 0 {
		return
	}
	if dt > p.params.MaxDt {
		dt = p.params.MaxDt
	}

	// steering, authority grows with speed
	steer := clamp(in.Steer+in.Tilt*p.params.TiltBlend, -1, 1)
	authority := 1.0
	if p.params.LowSpeedRef > 0 {
		authority = math.Min(1, c.Speed/p.params.LowSpeedRef)
	}
	c.Heading += steer * p.params.SteerRate * authority * dt

	// longitudinal
	c.Speed += clamp(in.Throttle, 0, 1) * p.params.AccelRate * dt
	c.Speed -= clamp(in.Brake, 0, 1) * p.params.BrakeRate * dt
	c.Speed *= math.Exp(-p.params.DragRate * dt)
	c.Speed = clamp(c.Speed, 0, p.params.MaxSpeed)

	// integrate
	c.X += math.Cos(c.Heading) * c.Speed * dt
	c.Y += math.Sin(c.Heading) * c.Speed * dt

	proj := p.path.Nearest(r2.Vec{X: c.X, Y: c.Y})
	c.PrevS = c.S
	c.S = proj.S
	c.Lateral = proj.Lateral

	p.constrainToTrack(c, proj)
	p.applyLoopGate(c, dt)
}

// constrainToTrack clamps the car back onto the boundary and bounces the
// velocity component along the local normal.
func (p *Processor) constrainToTrack(c *model.Car, proj track.Projection) {
	if p.halfWidth <= 0 || proj.Dist >= track.FarAway {
		return
	}
	if math.Abs(proj.Lateral) <= p.halfWidth {
		return
	}
	sample := p.path.SampleAt(proj.S)
	side := 1.0
	if proj.Lateral < 0 {
		side = -1
	}
	bound := sample.Pos.Add(sample.Normal.Scale(side * p.halfWidth))
	c.X, c.Y = bound.X, bound.Y
	c.Lateral = side * p.halfWidth

	v := r2.Vec{
		X: math.Cos(c.Heading) * c.Speed,
		Y: math.Sin(c.Heading) * c.Speed,
	}
	vn := dot(v, sample.Normal)
	v = v.Sub(sample.Normal.Scale((1 + p.params.WallRestitution) * vn))
	c.Speed = math.Hypot(v.X, v.Y) * p.params.OffTrackPenalty
	if c.Speed > 0 {
		c.Heading = math.Atan2(v.Y, v.X)
	}
}

// applyLoopGate punishes cars that enter a loop zone below the minimum speed
// and grants a small boost to cars traversing it fast enough.
func (p *Processor) applyLoopGate(c *model.Car, dt float64) {
	if !p.path.InLoopZone(c.S) {
		return
	}
	if c.Speed < p.params.LoopMinSpeed {
		c.Speed *= p.params.LoopPenalty
	} else {
		c.Speed = math.Min(p.params.MaxSpeed, c.Speed+p.params.LoopBoost*dt)
	}
}

// ResolveCollisions separates every overlapping pair of non-finished cars
// symmetrically and exchanges velocity along the pair normal. All pairs are
// resolved every tick, order-independent up to float determinism.
//
//nolint:cyclop // pairwise resolution reads better in one piece
func (p *Processor) ResolveCollisions(cars []*model.Car) {
	minDist := p.params.CollisionDist
	for i := 0; i < len(cars); i++ {
		for j := i + 1; j < len(cars); j++ {
			a, b := cars[i], cars[j]
			if a.Finished || b.Finished {
				continue
			}
			dx, dy := b.X-a.X, b.Y-a.Y
			d := math.Hypot(dx, dy)
			if d >= minDist {
				continue
			}
			var n r2.Vec
			if d > 0 {
				n = r2.Vec{X: dx / d, Y: dy / d}
			} else {
				// coincident centers: pick a fixed axis so the
				// outcome stays deterministic
				n = r2.Vec{X: 1}
			}
			push := (minDist - d) / 2
			a.X -= n.X * push
			a.Y -= n.Y * push
			b.X += n.X * push
			b.Y += n.Y * push

			va := r2.Vec{X: math.Cos(a.Heading) * a.Speed, Y: math.Sin(a.Heading) * a.Speed}
			vb := r2.Vec{X: math.Cos(b.Heading) * b.Speed, Y: math.Sin(b.Heading) * b.Speed}
			van, vbn := dot(va, n), dot(vb, n)
			exchange := (vbn - van) * p.params.CarRestitution
			va = va.Add(n.Scale(exchange))
			vb = vb.Sub(n.Scale(exchange))

			a.Speed = math.Hypot(va.X, va.Y) * p.params.BumpPenalty
			b.Speed = math.Hypot(vb.X, vb.Y) * p.params.BumpPenalty
			if a.Speed > 0 {
				a.Heading = math.Atan2(va.Y, va.X)
			}
			if b.Speed > 0 {
				b.Heading = math.Atan2(vb.Y, vb.X)
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func dot(a, b r2.Vec) float64 { return a.X*b.X + a.Y*b.Y }

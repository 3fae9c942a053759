package race

import (
	"math"
	"time"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/track"
)

const (
	defaultLapTarget = 3
	// normalized progress thresholds for a finish line crossing
	defaultHighThreshold = 0.85
	defaultLowThreshold  = 0.15
	// a car reversing over the line right after a crossing must not
	// double-count within this window
	defaultDebounce = 900 * time.Millisecond

	spawnAhead = 50.0
	laneGap    = 26.0
)

// Processor tracks race mode, lap counts and the winner. Cars are evaluated
// in canonical order (the order of the slice handed to ProcessTick); on a
// same-tick multi-car finish the first car in that order wins.
type Processor struct {
	mode      model.RaceMode
	winner    *model.Winner
	lapTarget int
	high, low float64
	debounce  time.Duration
	now       func() time.Time
	log       *log.Logger
}

type Option func(*Processor)

func WithLapTarget(target int) Option {
	return func(p *Processor) {
		if target > 0 {
			p.lapTarget = target
		}
	}
}

func WithThresholds(high, low float64) Option {
	return func(p *Processor) {
		p.high = high
		p.low = low
	}
}

func WithDebounce(d time.Duration) Option {
	return func(p *Processor) {
		p.debounce = d
	}
}

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

func NewProcessor(opts ...Option) *Processor {
	ret := &Processor{
		mode:      model.ModeBuild,
		lapTarget: defaultLapTarget,
		high:      defaultHighThreshold,
		low:       defaultLowThreshold,
		debounce:  defaultDebounce,
		now:       time.Now,
		log:       log.Default().Named("sim.race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Processor) Mode() model.RaceMode { return p.mode }
func (p *Processor) Winner() *model.Winner { return p.winner }

func (p *Processor) SetLapTarget(target int) {
	if target > 0 {
		p.lapTarget = target
	}
}

// EnterDrive starts a race: every car is placed on a grid slot near the path
// start, speeds and lap counters zeroed, finished flags and winner cleared.
func (p *Processor) EnterDrive(cars []*model.Car, path *track.Path) {
	p.mode = model.ModeDrive
	p.winner = nil
	SpawnGrid(cars, path)
	p.log.Info("race started",
		log.Int("cars", len(cars)), log.Int("lapTarget", p.lapTarget))
}

// EnterBuild returns to track editing and clears the winner record.
func (p *Processor) EnterBuild() {
	p.mode = model.ModeBuild
	p.winner = nil
}

// SpawnGrid resets cars onto start slots just past the finish line, lane
// offsets alternating around the centerline.
func SpawnGrid(cars []*model.Car, path *track.Path) {
	lanes := []float64{-1, 0, 1}
	start := path.SampleAt(spawnAhead)
	for i, c := range cars {
		lane := lanes[i%len(lanes)]
		pos := start.Pos.Add(start.Normal.Scale(lane * laneGap))
		c.X, c.Y = pos.X, pos.Y
		c.Heading = math.Atan2(start.Tangent.Y, start.Tangent.X)
		c.Speed = 0
		c.Lap = 0
		c.Finished = false
		c.S = spawnAhead
		c.PrevS = spawnAhead
		c.Lateral = lane * laneGap
		c.LastCross = time.Time{}
	}
}

// ProcessTick runs lap detection over all cars after the dynamics step.
// Finished cars stay frozen; the first car to reach the lap target flips the
// race to finished and is recorded as winner.
func (p *Processor) ProcessTick(cars []*model.Car, path *track.Path, halfWidth float64) {
	if p.mode != model.ModeDrive {
		return
	}
	for _, c := range cars {
		if c.Finished {
			continue
		}
		if !p.checkCrossing(c, path, halfWidth) {
			continue
		}
		c.Lap++
		p.log.Debug("lap crossed",
			log.String("car", c.ID), log.Int("lap", c.Lap))
		if c.Lap >= p.lapTarget {
			c.Finished = true
			if p.mode == model.ModeDrive {
				p.mode = model.ModeFinished
				p.winner = &model.Winner{
					PlayerID: c.ID,
					Name:     c.Name,
					Color:    c.Color,
				}
				p.log.Info("race finished",
					log.String("winner", c.Name), log.String("id", c.ID))
			}
		}
	}
}

// checkCrossing registers a finish line crossing: previous progress above the
// high threshold, current below the low one, car within track width, and the
// debounce window elapsed since the car's last registered crossing.
func (p *Processor) checkCrossing(c *model.Car, path *track.Path, halfWidth float64) bool {
	prev := path.Progress(c.PrevS)
	cur := path.Progress(c.S)
	if prev <= p.high || cur >= p.low {
		return false
	}
	if halfWidth > 0 && math.Abs(c.Lateral) > halfWidth {
		return false
	}
	now := p.now()
	if !c.LastCross.IsZero() && now.Sub(c.LastCross) < p.debounce {
		return false
	}
	c.LastCross = now
	return true
}

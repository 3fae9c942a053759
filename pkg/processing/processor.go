package processing

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/processing/car"
	"github.com/tiletrack/tiletrack-go/pkg/processing/race"
	"github.com/tiletrack/tiletrack-go/pkg/track"
)

var (
	// ErrInvalidTrack blocks the build -> drive transition; it is non-fatal
	// and the simulator keeps running in build mode.
	ErrInvalidTrack = errors.New("track is not drivable")

	ErrInvalidTransition = errors.New("invalid race mode transition")
)

const defaultTrackWidth = 140.0

// Processor owns the per-room simulation: the derived path, the cars in
// canonical join order, the freshest input per car and the race state. It is
// single-threaded by contract; all calls must come from the owning loop.
type Processor struct {
	carProc  *car.Processor
	raceProc *race.Processor

	def    model.TrackDef
	path   *track.Path
	cars   []*model.Car
	byID   map[string]*model.Car
	inputs map[string]model.Input

	staleAfter   time.Duration
	snapshotChan chan<- model.SimSnapshot
	now          func() time.Time
	log          *log.Logger
}

type Option func(*Processor)

func WithCarProcessor(cp *car.Processor) Option {
	return func(p *Processor) {
		p.carProc = cp
	}
}

func WithRaceProcessor(rp *race.Processor) Option {
	return func(p *Processor) {
		p.raceProc = rp
	}
}

// WithSnapshotChannel sets the channel receiving one snapshot per tick.
// Sends never block; a slow consumer just misses ticks.
func WithSnapshotChannel(ch chan<- model.SimSnapshot) Option {
	return func(p *Processor) {
		p.snapshotChan = ch
	}
}

// WithStaleAfter zeroes a car's input once its last sample is older than d.
// Zero disables the timeout and keeps the last-known input in effect.
func WithStaleAfter(d time.Duration) Option {
	return func(p *Processor) {
		p.staleAfter = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

func NewProcessor(opts ...Option) *Processor {
	ret := &Processor{
		byID:       make(map[string]*model.Car),
		inputs:     make(map[string]model.Input),
		staleAfter: time.Second,
		now:        time.Now,
		log:        log.Default().Named("sim"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.carProc == nil {
		ret.carProc = car.NewProcessor()
	}
	if ret.raceProc == nil {
		ret.raceProc = race.NewProcessor(race.WithClock(ret.now))
	}
	return ret
}

func (p *Processor) Mode() model.RaceMode { return p.raceProc.Mode() }
func (p *Processor) Winner() *model.Winner { return p.raceProc.Winner() }
func (p *Processor) Path() *track.Path { return p.path }
func (p *Processor) Track() model.TrackDef { return p.def }

// SetTrack installs a new track definition. The path is rebuilt synchronously
// and replaced wholesale; no tick can observe a torn rebuild. A non-drivable
// definition is kept (the host keeps editing it) but reported.
func (p *Processor) SetTrack(def model.TrackDef) error {
	if def.Width <= 0 {
		def.Width = defaultTrackWidth
	}
	if def.LapsToWin <= 0 {
		if preset := track.PresetByID(def.PresetID); preset != nil {
			def.LapsToWin = preset.LapsToWin
		} else {
			def.LapsToWin = 3
		}
	}
	p.def = def
	p.path = track.Build(&def)
	p.carProc.SetPath(p.path, def.Width)
	p.raceProc.SetLapTarget(def.LapsToWin)
	// editing invalidates a running race
	if p.raceProc.Mode() != model.ModeBuild {
		p.raceProc.EnterBuild()
	}
	if !p.path.Drivable() {
		return fmt.Errorf("%w: %w", ErrInvalidTrack, p.path.Err())
	}
	return nil
}

// AddPlayer creates the car for a joined controller. New cars appear parked
// at the path start; lap state starts clean.
func (p *Processor) AddPlayer(id, name, color string) *model.Car {
	if existing, ok := p.byID[id]; ok {
		return existing
	}
	c := &model.Car{ID: id, Name: name, Color: color}
	if p.path != nil && p.path.Drivable() {
		start := p.path.SampleAt(0)
		c.X, c.Y = start.Pos.X, start.Pos.Y
	}
	p.cars = append(p.cars, c)
	p.byID[id] = c
	p.inputs[id] = model.Input{}
	p.log.Debug("car created", log.String("id", id), log.String("name", name))
	return c
}

func (p *Processor) RemovePlayer(id string) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	delete(p.byID, id)
	delete(p.inputs, id)
	p.cars = lo.Filter(p.cars, func(c *model.Car, _ int) bool {
		return c.ID != id
	})
}

func (p *Processor) Cars() []*model.Car { return p.cars }

// SetInput overwrites the car's control sample wholesale, last write wins.
// Samples for unknown players are dropped.
func (p *Processor) SetInput(id string, in model.Input) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	in.ReceivedAt = p.now()
	p.inputs[id] = in
}

// SetMode applies an externally requested mode transition. Drive entry
// requires a drivable track; the finished state is only ever entered
// internally by lap detection.
func (p *Processor) SetMode(mode model.RaceMode) error {
	switch mode {
	case model.ModeDrive:
		if p.path == nil || !p.path.Drivable() {
			return ErrInvalidTrack
		}
		p.raceProc.EnterDrive(p.cars, p.path)
		return nil
	case model.ModeBuild:
		p.raceProc.EnterBuild()
		return nil
	default:
		return fmt.Errorf("%w: to %q", ErrInvalidTransition, mode)
	}
}

// Reset restarts the race on the current track.
func (p *Processor) Reset() error {
	return p.SetMode(model.ModeDrive)
}

// Tick advances the simulation by dt seconds: freshest input per car, one
// dynamics step each, pairwise collision resolution, lap detection, then one
// snapshot publish. Outside drive mode cars stay frozen but snapshots keep
// flowing.
func (p *Processor) Tick(dt float64) {
	if p.raceProc.Mode() == model.ModeDrive && p.path != nil {
		for _, c := range p.cars {
			if c.Finished {
				continue
			}
			p.carProc.Step(c, p.inputFor(c.ID), dt)
		}
		p.carProc.ResolveCollisions(p.cars)
		p.raceProc.ProcessTick(p.cars, p.path, p.carProc.HalfWidth())
	}
	p.publish()
}

func (p *Processor) inputFor(id string) model.Input {
	in := p.inputs[id]
	if p.staleAfter > 0 && p.now().Sub(in.ReceivedAt) > p.staleAfter {
		// silent controller: fall back to neutral instead of coasting
		// on stale throttle forever
		return model.Input{}
	}
	return in
}

func (p *Processor) publish() {
	if p.snapshotChan == nil {
		return
	}
	select {
	case p.snapshotChan <- p.Snapshot():
	default:
	}
}

// Snapshot returns a value copy of the current simulation state.
func (p *Processor) Snapshot() model.SimSnapshot {
	snap := model.SimSnapshot{
		Mode: p.raceProc.Mode(),
		Cars: make([]model.Car, 0, len(p.cars)),
	}
	for _, c := range p.cars {
		snap.Cars = append(snap.Cars, *c)
	}
	if w := p.raceProc.Winner(); w != nil {
		win := *w
		snap.Winner = &win
	}
	return snap
}

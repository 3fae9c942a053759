//nolint:thelper,funlen // ok for tests
package car

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/track"
	"github.com/tiletrack/tiletrack-go/testsupport/basedata"
)

func newTestProcessor(t *testing.T, def model.TrackDef) *Processor {
	path := track.Build(&def)
	require.NoError(t, path.Err())
	p := NewProcessor()
	p.SetPath(path, def.Width)
	return p
}

func TestStepThrottleCapsAtMaxSpeed(t *testing.T) {
	p := newTestProcessor(t, basedata.SquareWaypointTrack())
	c := &model.Car{ID: "p1", X: 10, Y: 0}
	in := model.Input{Throttle: 1}
	for i := 0; i < 2000; i++ {
		// hold position so the run never touches a wall; only the
		// longitudinal dynamics are under test
		c.X, c.Y = 10, 0
		p.Step(c, in, 0.033)
	}
	assert.LessOrEqual(t, c.Speed, p.Params().MaxSpeed)
	assert.Greater(t, c.Speed, 400.0,
		"full throttle settles at the drag equilibrium")
}

func TestStepClampsDt(t *testing.T) {
	p := newTestProcessor(t, basedata.SquareWaypointTrack())
	a := &model.Car{ID: "a", X: 10, Y: 0}
	b := &model.Car{ID: "b", X: 10, Y: 0}
	in := model.Input{Throttle: 1}
	p.Step(a, in, 10)
	p.Step(b, in, p.Params().MaxDt)
	assert.InDelta(t, b.Speed, a.Speed, 1e-9)
	assert.InDelta(t, b.X, a.X, 1e-9)
}

func TestStepDragDecaysWithoutInput(t *testing.T) {
	p := newTestProcessor(t, basedata.SquareWaypointTrack())
	c := &model.Car{ID: "p1", X: 10, Y: 0, Speed: 100}
	p.Step(c, model.Input{}, 0.033)
	assert.Less(t, c.Speed, 100.0)
	assert.GreaterOrEqual(t, c.Speed, 0.0)
}

func TestStepNoSteeringAtStandstill(t *testing.T) {
	p := newTestProcessor(t, basedata.SquareWaypointTrack())
	c := &model.Car{ID: "p1", X: 10, Y: 0, Heading: 0.5}
	p.Step(c, model.Input{Steer: 1}, 0.033)
	assert.InDelta(t, 0.5, c.Heading, 1e-12,
		"steering authority is zero at standstill")
}

func TestStepClampsInputRanges(t *testing.T) {
	p := newTestProcessor(t, basedata.SquareWaypointTrack())
	a := &model.Car{ID: "a", X: 10, Y: 0}
	b := &model.Car{ID: "b", X: 10, Y: 0}
	p.Step(a, model.Input{Throttle: 99, Steer: 42}, 0.033)
	p.Step(b, model.Input{Throttle: 1, Steer: 1}, 0.033)
	assert.InDelta(t, b.Speed, a.Speed, 1e-9)
	assert.InDelta(t, b.Heading, a.Heading, 1e-9)
}

func TestConstrainToTrackClampsAndBounces(t *testing.T) {
	def := basedata.SquareWaypointTrack()
	p := newTestProcessor(t, def)
	half := def.Width / 2
	// drifting straight up away from the first edge, just inside the
	// boundary; the step pushes it out and the clamp brings it back
	c := &model.Car{
		ID: "p1", X: 240, Y: half - 1,
		Heading: math.Pi / 2, Speed: 300,
	}
	p.Step(c, model.Input{}, 0.033)
	assert.InDelta(t, half, c.Lateral, 1e-9)
	assert.InDelta(t, half, c.Y, 1e-9, "clamped onto the boundary")
	// the outward velocity component is reflected
	assert.Less(t, math.Sin(c.Heading), 0.0, "velocity points back inward")
	assert.Less(t, c.Speed, 300.0)
}

func TestStepInsideTrackKeepsLateral(t *testing.T) {
	def := basedata.SquareWaypointTrack()
	p := newTestProcessor(t, def)
	c := &model.Car{ID: "p1", X: 240, Y: 20, Heading: 0, Speed: 100}
	p.Step(c, model.Input{}, 0.033)
	assert.InDelta(t, 20.0, c.Lateral, 1e-6)
	assert.Less(t, math.Abs(c.Lateral), def.HalfWidth())
}

func TestLoopGate(t *testing.T) {
	def := basedata.PresetTrack("02")
	path := track.Build(&def)
	require.NoError(t, path.Err())
	require.NotEmpty(t, path.Zones())
	p := NewProcessor()
	p.SetPath(path, def.Width)

	z := path.Zones()[0]
	mid := path.SampleAt((z.Start + z.End) / 2)
	heading := math.Atan2(mid.Tangent.Y, mid.Tangent.X)

	slow := &model.Car{ID: "slow", X: mid.Pos.X, Y: mid.Pos.Y,
		Heading: heading, Speed: 50}
	p.Step(slow, model.Input{}, 0.01)
	assert.Less(t, slow.Speed, 25.0, "crawling into a loop collapses speed")

	fast := &model.Car{ID: "fast", X: mid.Pos.X, Y: mid.Pos.Y,
		Heading: heading, Speed: 400}
	p.Step(fast, model.Input{}, 0.01)
	assert.Greater(t, fast.Speed, 390.0, "fast traversal keeps momentum")
}

func TestResolveCollisionsSeparatesPair(t *testing.T) {
	p := NewProcessor()
	a := &model.Car{ID: "a", X: 100, Y: 100, Speed: 200}
	b := &model.Car{ID: "b", X: 105, Y: 100, Speed: 0, Heading: 0}
	p.ResolveCollisions([]*model.Car{a, b})
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)
	assert.InDelta(t, p.Params().CollisionDist, dist, 1e-9)
	assert.Less(t, a.Speed, 200.0, "bumper loses speed")
}

func TestResolveCollisionsCoincidentCenters(t *testing.T) {
	p := NewProcessor()
	a := &model.Car{ID: "a", X: 50, Y: 50}
	b := &model.Car{ID: "b", X: 50, Y: 50}
	p.ResolveCollisions([]*model.Car{a, b})
	// deterministic fixed-axis separation
	assert.InDelta(t, p.Params().CollisionDist, b.X-a.X, 1e-9)
	assert.InDelta(t, a.Y, b.Y, 1e-9)
}

func TestResolveCollisionsSkipsFinishedCars(t *testing.T) {
	p := NewProcessor()
	a := &model.Car{ID: "a", X: 100, Y: 100, Finished: true}
	b := &model.Car{ID: "b", X: 101, Y: 100}
	p.ResolveCollisions([]*model.Car{a, b})
	assert.InDelta(t, 100.0, a.X, 1e-9)
	assert.InDelta(t, 101.0, b.X, 1e-9)
}

//nolint:thelper,funlen // ok for tests
package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/track"
	"github.com/tiletrack/tiletrack-go/testsupport/basedata"
)

func buildPath(t *testing.T) *track.Path {
	def := basedata.SquareWaypointTrack()
	p := track.Build(&def)
	require.NoError(t, p.Err())
	return p
}

// applyProgress emulates the dynamics step for lap detection: it moves the
// car to the given normalized progress and keeps the previous one.
func applyProgress(c *model.Car, path *track.Path, progress float64) {
	c.PrevS = c.S
	c.S = progress * path.Total()
}

func TestLapDetection(t *testing.T) {
	path := buildPath(t)
	clock := time.Unix(1000, 0)
	p := NewProcessor(WithClock(func() time.Time { return clock }))
	p.mode = model.ModeDrive

	c := &model.Car{ID: "p1"}
	cars := []*model.Car{c}
	for _, progress := range []float64{0.90, 0.95, 0.02, 0.10} {
		applyProgress(c, path, progress)
		p.ProcessTick(cars, path, 70)
		clock = clock.Add(33 * time.Millisecond)
	}
	assert.Equal(t, 1, c.Lap, "the wrap counts exactly once")
}

func TestLapDetectionIgnoresPartialWrap(t *testing.T) {
	path := buildPath(t)
	p := NewProcessor()
	p.mode = model.ModeDrive
	c := &model.Car{ID: "p1"}
	cars := []*model.Car{c}
	// hovering around the line without the high->low signature
	for _, progress := range []float64{0.80, 0.84, 0.16, 0.20} {
		applyProgress(c, path, progress)
		p.ProcessTick(cars, path, 70)
	}
	assert.Equal(t, 0, c.Lap)
}

func TestLapDetectionDebounce(t *testing.T) {
	path := buildPath(t)
	clock := time.Unix(1000, 0)
	p := NewProcessor(WithClock(func() time.Time { return clock }))
	p.mode = model.ModeDrive

	c := &model.Car{ID: "p1"}
	cars := []*model.Car{c}
	applyProgress(c, path, 0.90)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	require.Equal(t, 1, c.Lap)

	// reverse over the line and forward again inside the debounce window
	clock = clock.Add(200 * time.Millisecond)
	applyProgress(c, path, 0.95)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	assert.Equal(t, 1, c.Lap, "within the debounce window")

	// after the window the same signature counts again
	clock = clock.Add(time.Second)
	applyProgress(c, path, 0.95)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	assert.Equal(t, 2, c.Lap)
}

func TestLapDetectionRequiresOnTrack(t *testing.T) {
	path := buildPath(t)
	p := NewProcessor()
	p.mode = model.ModeDrive
	c := &model.Car{ID: "p1", Lateral: 120}
	cars := []*model.Car{c}
	applyProgress(c, path, 0.90)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	assert.Equal(t, 0, c.Lap, "cutting wide across the line does not count")
}

func TestRaceFinishCanonicalOrder(t *testing.T) {
	path := buildPath(t)
	p := NewProcessor(WithLapTarget(1))
	p.mode = model.ModeDrive

	a := &model.Car{ID: "a", Name: "Ada"}
	b := &model.Car{ID: "b", Name: "Grace"}
	cars := []*model.Car{a, b}
	for _, c := range cars {
		applyProgress(c, path, 0.90)
	}
	p.ProcessTick(cars, path, 70)
	for _, c := range cars {
		applyProgress(c, path, 0.05)
	}
	p.ProcessTick(cars, path, 70)

	assert.Equal(t, model.ModeFinished, p.Mode())
	require.NotNil(t, p.Winner())
	assert.Equal(t, "a", p.Winner().PlayerID, "first car in order wins the tie")
	assert.True(t, a.Finished)
	assert.True(t, b.Finished, "both cars completed the lap target")
}

func TestProcessTickFrozenOutsideDrive(t *testing.T) {
	path := buildPath(t)
	p := NewProcessor()
	c := &model.Car{ID: "p1"}
	cars := []*model.Car{c}
	applyProgress(c, path, 0.90)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	assert.Equal(t, 0, c.Lap, "no lap counting in build mode")
}

func TestSpawnGrid(t *testing.T) {
	path := buildPath(t)
	cars := []*model.Car{
		{ID: "a", Speed: 300, Lap: 2, Finished: true},
		{ID: "b"},
		{ID: "c"},
		{ID: "d"},
	}
	SpawnGrid(cars, path)
	for _, c := range cars {
		assert.Zero(t, c.Speed)
		assert.Zero(t, c.Lap)
		assert.False(t, c.Finished)
		assert.InDelta(t, spawnAhead, c.S, 1e-9)
		assert.InDelta(t, c.S, c.PrevS, 1e-9,
			"equal arc lengths avoid a spurious first crossing")
	}
	// lanes alternate around the centerline and cycle
	assert.InDelta(t, -laneGap, cars[0].Lateral, 1e-9)
	assert.InDelta(t, 0.0, cars[1].Lateral, 1e-9)
	assert.InDelta(t, laneGap, cars[2].Lateral, 1e-9)
	assert.InDelta(t, cars[0].Lateral, cars[3].Lateral, 1e-9)
	// spawn point sits on the first edge pointing +x
	assert.InDelta(t, 0.0, cars[1].Heading, 1e-9)
	assert.InDelta(t, spawnAhead, cars[1].X, 1e-9)
}

func TestEnterDriveAndBuild(t *testing.T) {
	path := buildPath(t)
	p := NewProcessor(WithLapTarget(1))
	c := &model.Car{ID: "p1", Name: "Ada"}
	cars := []*model.Car{c}

	p.EnterDrive(cars, path)
	assert.Equal(t, model.ModeDrive, p.Mode())

	applyProgress(c, path, 0.90)
	p.ProcessTick(cars, path, 70)
	applyProgress(c, path, 0.05)
	p.ProcessTick(cars, path, 70)
	require.NotNil(t, p.Winner())

	p.EnterBuild()
	assert.Equal(t, model.ModeBuild, p.Mode())
	assert.Nil(t, p.Winner())

	p.EnterDrive(cars, path)
	assert.Nil(t, p.Winner(), "restart clears the previous result")
	assert.False(t, c.Finished)
}

//nolint:thelper,funlen // ok for tests
package track

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/tiletrack/tiletrack-go/pkg/model"
)

func squareDef() *model.TrackDef {
	return &model.TrackDef{
		Waypoints: []model.Point{
			{X: 0, Y: 0}, {X: 480, Y: 0}, {X: 480, Y: 480}, {X: 0, Y: 480},
		},
		Width: 140,
	}
}

func TestBuildFromWaypoints(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	assert.True(t, p.Drivable())
	assert.InDelta(t, 1920.0, p.Total(), 1e-9)
	// open input is closed automatically
	assert.Equal(t, p.Points()[0], p.Points()[len(p.Points())-1])
}

func TestBuildDegenerate(t *testing.T) {
	tests := []struct {
		name string
		def  *model.TrackDef
		want error
	}{
		{"nil def", nil, ErrTooFewWaypoints},
		{"two waypoints", &model.TrackDef{
			Waypoints: []model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}},
		}, ErrTooFewWaypoints},
		{"open tile circuit", &model.TrackDef{
			Tiles: []model.Tile{
				{X: 2, Y: 2, Kind: model.TileCurve, Rot: 180},
				{X: 3, Y: 2, Kind: model.TileFinish, Rot: 180},
				{X: 4, Y: 2, Kind: model.TileCurve, Rot: 270},
				{X: 2, Y: 3, Kind: model.TileCurve, Rot: 90},
				{X: 3, Y: 3, Kind: model.TileStraight, Rot: 0},
			},
		}, ErrOpenCircuit},
		{"no finish", &model.TrackDef{
			Tiles: []model.Tile{
				{X: 2, Y: 2, Kind: model.TileCurve, Rot: 180},
				{X: 3, Y: 2, Kind: model.TileCurve, Rot: 270},
				{X: 3, Y: 3, Kind: model.TileCurve, Rot: 0},
				{X: 2, Y: 3, Kind: model.TileCurve, Rot: 90},
			},
		}, ErrFinishCount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Build(tc.def)
			assert.False(t, p.Drivable())
			assert.ErrorIs(t, p.Err(), tc.want)
			// queries on a degenerate path must stay safe
			assert.Zero(t, p.Total())
			assert.Equal(t, 0.0, p.Progress(123))
			got := p.Nearest(r2.Vec{X: 1, Y: 2})
			assert.Equal(t, FarAway, got.Dist)
		})
	}
}

func TestBuildPresets(t *testing.T) {
	for _, preset := range Presets {
		t.Run(preset.ID, func(t *testing.T) {
			def := preset.Def()
			p := Build(&def)
			require.NoError(t, p.Err())
			assert.True(t, p.Drivable())
			assert.Positive(t, p.Total())
			assert.NotNil(t, p.Finish())
		})
	}
}

func TestPresetFallback(t *testing.T) {
	assert.Equal(t, Presets[0].ID, PresetByID("nope").ID)
	// a def naming only a preset id builds that preset
	p := Build(&model.TrackDef{PresetID: "02"})
	require.NoError(t, p.Err())
	assert.NotEmpty(t, p.Zones(), "preset 02 carries a loop tile")
}

func TestSampleAtWraps(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	opt := cmpopts.EquateApprox(0, 1e-9)
	for _, s := range []float64{0, 100, 479, 480, 1000, 1919} {
		a := p.SampleAt(s)
		b := p.SampleAt(s + p.Total())
		assert.Empty(t, cmp.Diff(a, b, opt), "s=%v", s)
	}
	neg := p.SampleAt(-10)
	assert.Empty(t, cmp.Diff(p.SampleAt(1910), neg, opt))
}

func TestSampleAtTangents(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	// first edge runs +x, second edge +y
	first := p.SampleAt(100)
	assert.InDelta(t, 1.0, first.Tangent.X, 1e-9)
	assert.InDelta(t, 0.0, first.Tangent.Y, 1e-9)
	second := p.SampleAt(600)
	assert.InDelta(t, 0.0, second.Tangent.X, 1e-9)
	assert.InDelta(t, 1.0, second.Tangent.Y, 1e-9)
	// normal is the tangent rotated 90 degrees counterclockwise
	assert.InDelta(t, 1.0, first.Normal.Y, 1e-9)
	assert.InDelta(t, -1.0, second.Normal.X, 1e-9)
}

func TestNearestRoundTrip(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	// push a centerline sample out along its normal; the projection must
	// recover arc length and the signed offset
	for _, s := range []float64{50, 700, 1500} {
		sample := p.SampleAt(s)
		probe := sample.Pos.Add(sample.Normal.Scale(30))
		got := p.Nearest(probe)
		assert.InDelta(t, s, got.S, 1e-6, "s=%v", s)
		assert.InDelta(t, 30.0, got.Lateral, 1e-6, "s=%v", s)
		assert.InDelta(t, 30.0, got.Dist, 1e-6, "s=%v", s)
	}
}

func TestNearestSignedLateral(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	// first edge runs +x with the left normal pointing +y
	left := p.Nearest(r2.Vec{X: 240, Y: 30})
	assert.InDelta(t, 30.0, left.Lateral, 1e-9)
	right := p.Nearest(r2.Vec{X: 240, Y: -30})
	assert.InDelta(t, -30.0, right.Lateral, 1e-9)
	assert.InDelta(t, 240.0, left.S, 1e-9)
}

func TestNearestTieBreakFirstSegment(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	// the exact center is equidistant to all four edges; path order wins
	got := p.Nearest(r2.Vec{X: 240, Y: 240})
	assert.InDelta(t, 240.0, got.S, 1e-9)
}

func TestProgress(t *testing.T) {
	p := Build(squareDef())
	require.NoError(t, p.Err())
	assert.InDelta(t, 0.25, p.Progress(480), 1e-9)
	assert.InDelta(t, 0.25, p.Progress(480+1920), 1e-9)
	assert.InDelta(t, 1910.0/1920.0, p.Progress(-10), 1e-9)
}

func TestLoopZones(t *testing.T) {
	def := &model.TrackDef{PresetID: "02"}
	p := Build(def)
	require.NoError(t, p.Err())
	require.Len(t, p.Zones(), 1)
	z := p.Zones()[0]
	mid := (z.Start + z.End) / 2
	assert.True(t, p.InLoopZone(mid))
	assert.False(t, p.InLoopZone(z.End+1))
	assert.True(t, p.InLoopZone(mid+p.Total()), "wraps like every arc query")
}

func TestFinishStampsOverStraight(t *testing.T) {
	// same cell carries a straight first and the finish second; the cycle
	// must still close and report exactly one finish
	def := &model.TrackDef{
		Tiles: []model.Tile{
			{X: 2, Y: 2, Kind: model.TileCurve, Rot: 180},
			{X: 3, Y: 2, Kind: model.TileStraight, Rot: 180},
			{X: 4, Y: 2, Kind: model.TileCurve, Rot: 270},
			{X: 2, Y: 3, Kind: model.TileCurve, Rot: 90},
			{X: 3, Y: 3, Kind: model.TileStraight, Rot: 0},
			{X: 4, Y: 3, Kind: model.TileCurve, Rot: 0},
			{X: 3, Y: 2, Kind: model.TileFinish, Rot: 180},
		},
	}
	p := Build(def)
	require.NoError(t, p.Err())
	require.NotNil(t, p.Finish())
	// a horizontal finish tile yields a vertical line through the center
	assert.InDelta(t, p.Finish().A.X, p.Finish().B.X, 1e-9)
}

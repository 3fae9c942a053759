// Package basedata provides shared fixtures for tests: small track
// definitions with known geometry and a couple of cars.
package basedata

import (
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/track"
)

// SquareWaypointTrack is a 4x480 unit square described by raw waypoints.
// Total centerline length is 1920; the lap line sits at the first point.
func SquareWaypointTrack() model.TrackDef {
	return model.TrackDef{
		Waypoints: []model.Point{
			{X: 0, Y: 0},
			{X: 480, Y: 0},
			{X: 480, Y: 480},
			{X: 0, Y: 480},
		},
		Width:     140,
		LapsToWin: 3,
	}
}

// OvalTileTrack is the smallest closed tile circuit: four curves and two
// straights, finish stamped on the top straight.
func OvalTileTrack() model.TrackDef {
	return model.TrackDef{
		Tiles: []model.Tile{
			{X: 2, Y: 2, Kind: model.TileCurve, Rot: 180},
			{X: 3, Y: 2, Kind: model.TileStraight, Rot: 180},
			{X: 4, Y: 2, Kind: model.TileCurve, Rot: 270},
			{X: 2, Y: 3, Kind: model.TileCurve, Rot: 90},
			{X: 3, Y: 3, Kind: model.TileStraight, Rot: 0},
			{X: 4, Y: 3, Kind: model.TileCurve, Rot: 0},
			{X: 3, Y: 2, Kind: model.TileFinish, Rot: 180},
		},
		Width:     140,
		LapsToWin: 3,
	}
}

// OpenTileTrack is missing its closing curve and must be rejected.
func OpenTileTrack() model.TrackDef {
	return model.TrackDef{
		Tiles: []model.Tile{
			{X: 2, Y: 2, Kind: model.TileCurve, Rot: 180},
			{X: 3, Y: 2, Kind: model.TileFinish, Rot: 180},
			{X: 4, Y: 2, Kind: model.TileCurve, Rot: 270},
			{X: 2, Y: 3, Kind: model.TileCurve, Rot: 90},
			{X: 3, Y: 3, Kind: model.TileStraight, Rot: 0},
		},
		Width: 140,
	}
}

// PresetTrack expands a preset catalogue entry with the default width.
func PresetTrack(id string) model.TrackDef {
	def := track.PresetByID(id).Def()
	def.Width = 140
	return def
}

// SampleCars returns two parked cars at the origin.
func SampleCars() []*model.Car {
	return []*model.Car{
		{ID: "p1", Name: "Ada", Color: "#ff6a00"},
		{ID: "p2", Name: "Grace", Color: "#28d17c"},
	}
}

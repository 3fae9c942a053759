package track

import "github.com/tiletrack/tiletrack-go/pkg/model"

// Preset is an authored tile track selectable by id. All presets form a
// single closed cycle with exactly one finish tile (the finish stamps over a
// straight on the same cell).
type Preset struct {
	ID        string
	Name      string
	LapsToWin int
	Tiles     []model.Tile
}

//nolint:lll // tile rows read better unwrapped
var Presets = []Preset{
	{ID: "01", Name: "01 • Orange Oval", LapsToWin: 3, Tiles: []model.Tile{
		{X: 5, Y: 3, Kind: model.TileCurve, Rot: 180}, {X: 6, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 7, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 8, Y: 3, Kind: model.TileCurve, Rot: 270},
		{X: 5, Y: 4, Kind: model.TileStraight, Rot: 90}, {X: 8, Y: 4, Kind: model.TileStraight, Rot: 270},
		{X: 5, Y: 5, Kind: model.TileStraight, Rot: 90}, {X: 8, Y: 5, Kind: model.TileStraight, Rot: 270},
		{X: 5, Y: 6, Kind: model.TileCurve, Rot: 90}, {X: 6, Y: 6, Kind: model.TileStraight, Rot: 0}, {X: 7, Y: 6, Kind: model.TileStraight, Rot: 0}, {X: 8, Y: 6, Kind: model.TileCurve, Rot: 0},
		{X: 6, Y: 3, Kind: model.TileFinish, Rot: 180},
	}},
	{ID: "02", Name: "02 • Figure-8 Crossover", LapsToWin: 3, Tiles: []model.Tile{
		{X: 5, Y: 3, Kind: model.TileCurve, Rot: 180}, {X: 6, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 7, Y: 3, Kind: model.TileCurve, Rot: 270},
		{X: 5, Y: 4, Kind: model.TileStraight, Rot: 90}, {X: 7, Y: 4, Kind: model.TileLoop, Rot: 270},
		{X: 5, Y: 5, Kind: model.TileCurve, Rot: 90}, {X: 6, Y: 5, Kind: model.TileStraight, Rot: 0}, {X: 7, Y: 5, Kind: model.TileCurve, Rot: 0},
		{X: 6, Y: 3, Kind: model.TileFinish, Rot: 180},
	}},
	{ID: "03", Name: "03 • S-Curve Sprint", LapsToWin: 3, Tiles: []model.Tile{
		{X: 4, Y: 3, Kind: model.TileCurve, Rot: 180}, {X: 5, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 6, Y: 3, Kind: model.TileCurve, Rot: 270},
		{X: 4, Y: 4, Kind: model.TileStraight, Rot: 90}, {X: 6, Y: 4, Kind: model.TileStraight, Rot: 270},
		{X: 4, Y: 5, Kind: model.TileCurve, Rot: 90}, {X: 5, Y: 5, Kind: model.TileStraight, Rot: 0}, {X: 6, Y: 5, Kind: model.TileCurve, Rot: 0},
		{X: 5, Y: 5, Kind: model.TileFinish, Rot: 0},
	}},
	{ID: "04", Name: "04 • Big Loop Challenge", LapsToWin: 3, Tiles: []model.Tile{
		{X: 4, Y: 3, Kind: model.TileCurve, Rot: 180}, {X: 5, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 6, Y: 3, Kind: model.TileStraight, Rot: 180}, {X: 7, Y: 3, Kind: model.TileCurve, Rot: 270},
		{X: 4, Y: 4, Kind: model.TileStraight, Rot: 90}, {X: 7, Y: 4, Kind: model.TileLoop, Rot: 270},
		{X: 4, Y: 5, Kind: model.TileStraight, Rot: 90}, {X: 7, Y: 5, Kind: model.TileStraight, Rot: 270},
		{X: 4, Y: 6, Kind: model.TileCurve, Rot: 90}, {X: 5, Y: 6, Kind: model.TileStraight, Rot: 0}, {X: 6, Y: 6, Kind: model.TileStraight, Rot: 0}, {X: 7, Y: 6, Kind: model.TileCurve, Rot: 0},
		{X: 5, Y: 3, Kind: model.TileFinish, Rot: 180},
	}},
	{ID: "05", Name: "05 • Tight Technical", LapsToWin: 3, Tiles: []model.Tile{
		{X: 5, Y: 2, Kind: model.TileCurve, Rot: 180}, {X: 6, Y: 2, Kind: model.TileStraight, Rot: 180}, {X: 7, Y: 2, Kind: model.TileCurve, Rot: 270},
		{X: 5, Y: 3, Kind: model.TileStraight, Rot: 90}, {X: 7, Y: 3, Kind: model.TileStraight, Rot: 270},
		{X: 5, Y: 4, Kind: model.TileCurve, Rot: 90}, {X: 6, Y: 4, Kind: model.TileStraight, Rot: 0}, {X: 7, Y: 4, Kind: model.TileCurve, Rot: 0},
		{X: 6, Y: 2, Kind: model.TileFinish, Rot: 180},
	}},
}

// Def expands the preset into a track definition. Width and lap count are
// left to the consumer's defaults when unset.
func (p *Preset) Def() model.TrackDef {
	tiles := make([]model.Tile, len(p.Tiles))
	copy(tiles, p.Tiles)
	return model.TrackDef{
		PresetID:  p.ID,
		Tiles:     tiles,
		LapsToWin: p.LapsToWin,
	}
}

// PresetByID returns the preset with the given id, falling back to the first
// one for unknown ids. Returns nil only when the catalogue is empty.
func PresetByID(id string) *Preset {
	for i := range Presets {
		if Presets[i].ID == id {
			return &Presets[i]
		}
	}
	if len(Presets) > 0 {
		return &Presets[0]
	}
	return nil
}

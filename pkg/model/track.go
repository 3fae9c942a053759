package model

// TileKind is the closed set of track piece kinds.
type TileKind string

const (
	TileStraight TileKind = "S"
	TileCurve    TileKind = "C"
	TileFinish   TileKind = "F"
	TileLoop     TileKind = "L"
)

// Tile is one placed track piece on the build grid. Rot is a multiple of 90
// degrees.
type Tile struct {
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Kind TileKind `json:"kind"`
	Rot  int      `json:"rot"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackDef describes a track as authored by the host. Either a preset id, a
// custom tile layout (overrides the preset when non-empty) or a raw closed
// waypoint polyline.
//
//nolint:tagliatelle // wire format of the original clients
type TrackDef struct {
	PresetID  string  `json:"presetId,omitempty"`
	Tiles     []Tile  `json:"customPieces,omitempty"`
	Waypoints []Point `json:"waypoints,omitempty"`
	Width     float64 `json:"width"`
	LapsToWin int     `json:"lapsToWin"`
}

func (d *TrackDef) HalfWidth() float64 {
	if d.Width <= 0 {
		return 0
	}
	return d.Width / 2
}

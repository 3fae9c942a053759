package model

// RaceMode is the race lifecycle state of a room.
type RaceMode string

const (
	ModeBuild    RaceMode = "build"
	ModeDrive    RaceMode = "drive"
	ModeFinished RaceMode = "finished"
)

func (m RaceMode) Valid() bool {
	switch m {
	case ModeBuild, ModeDrive, ModeFinished:
		return true
	}
	return false
}

//nolint:tagliatelle // wire format of the original clients
type Winner struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

// PlayerInfo is the membership entry broadcast to all participants.
type PlayerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Lap      int    `json:"lap"`
	Finished bool   `json:"finished"`
}

// RoomSnapshot is the room state as seen by host and controllers.
type RoomSnapshot struct {
	Code    string       `json:"code"`
	Mode    RaceMode     `json:"mode"`
	Track   TrackDef     `json:"track"`
	Players []PlayerInfo `json:"players"`
	Winner  *Winner      `json:"winner,omitempty"`
}

// SimSnapshot is the per-tick simulation state published by the host.
type SimSnapshot struct {
	Mode   RaceMode `json:"mode"`
	Cars   []Car    `json:"cars"`
	Winner *Winner  `json:"winner,omitempty"`
}

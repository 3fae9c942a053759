package model

import "encoding/json"

// MessageType discriminates the JSON messages exchanged with the broker.
type MessageType string

const (
	// host -> broker
	MsgCreateRoom MessageType = "create_room"
	MsgSetTrack   MessageType = "set_track"
	MsgSetMode    MessageType = "set_mode"
	MsgResetRace  MessageType = "reset_race"
	MsgSnapshot   MessageType = "snapshot"

	// controller -> broker
	MsgJoinRoom MessageType = "join_room"
	MsgInput    MessageType = "input"

	// broker -> host
	MsgRoomCreated MessageType = "room_created"
	MsgPlayerInput MessageType = "player_input"

	// broker -> both
	MsgRoomUpdate MessageType = "room_update"
	MsgJoined     MessageType = "joined"
	MsgError      MessageType = "error"
)

// Envelope is the wire representation of every message. Only the fields
// relevant for the given Type are populated.
//
//nolint:tagliatelle // wire format of the original clients
type Envelope struct {
	Type MessageType `json:"type"`

	Code     string    `json:"code,omitempty"`
	Name     string    `json:"name,omitempty"`
	PlayerID string    `json:"playerId,omitempty"`
	Mode     RaceMode  `json:"mode,omitempty"`
	Track    *TrackDef `json:"track,omitempty"`
	Input    *Input    `json:"input,omitempty"`
	Winner   *Winner   `json:"winner,omitempty"`

	Room *RoomSnapshot `json:"room,omitempty"`
	// host-published simulation state, relayed verbatim
	Snapshot json.RawMessage `json:"snapshot,omitempty"`

	Message string `json:"message,omitempty"`
}

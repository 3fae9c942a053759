package broker

import "errors"

// ErrRoomNotFound is returned for joins against unknown or expired codes.
// It is the only broker error surfaced to clients; permission violations are
// dropped silently so probing connections learn nothing.
var ErrRoomNotFound = errors.New("room not found")

// wire reason strings
const (
	reasonRoomNotFound = "room_not_found"
	reasonHostLeft     = "host_left"
)

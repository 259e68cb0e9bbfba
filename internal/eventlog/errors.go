package eventlog

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrUnknownTeam   = errors.New("team has no recorded history")
	ErrFrozen        = errors.New("event log already frozen")
	ErrInvalidRecord = errors.New("invalid game record")
)

// internal/hub/errors.go
package hub

import "errors"

var (
	ErrNotJoined        = errors.New("session is not in a room")
	ErrAlreadyJoined    = errors.New("connection already joined a room")
	ErrConnectionDone   = errors.New("connection already left its room")
	ErrStatusActive     = errors.New("special status already held in room")
	ErrNoCandidate      = errors.New("no member eligible for special status")
	ErrClientMismatch   = errors.New("envelope client id does not match session")
	ErrConnectionClosed = errors.New("connection closed")
	ErrOutboxFull       = errors.New("outbound buffer full")
)

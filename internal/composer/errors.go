package composer

import "errors"

// ErrSessionNotFound is returned when no draft exists for an id.
var ErrSessionNotFound = errors.New("draft session not found")

// ErrTooManySessions is returned when the live draft cap is reached.
var ErrTooManySessions = errors.New("too many open drafts")

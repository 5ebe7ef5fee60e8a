package session

import "errors"

var (
	// ErrNoActiveSession is returned by session-scoped operations when no
	// game is installed.
	ErrNoActiveSession = errors.New("no active game")

	// ErrInvalidKey is returned when an input key maps to no action.
	ErrInvalidKey = errors.New("invalid key")

	// ErrMissingSessionID is returned by ResumeSession without an id.
	ErrMissingSessionID = errors.New("missing game id")

	// ErrGameOver is returned when a queue or tick request targets a game
	// that has already ended.
	ErrGameOver = errors.New("game is over")

	// ErrStaleResponse reports that the session an operation was issued
	// against has been replaced. Its result was discarded. It is never
	// shown to the user.
	ErrStaleResponse = errors.New("stale response")
)

package room

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameStarted        = errors.New("game already started")
	ErrPlayerExists       = errors.New("player already exists")
	ErrPlayerNotFound     = errors.New("player not found in room")
	ErrPlayerConnected    = errors.New("player already connected")
	ErrPlayerDisconnected = errors.New("player already disconnected")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrUnknownEvent = errors.New("unknown event")

	// Generation gave up after its bounded number of attempts. Surfaced
	// as a creation failure, never retried silently.
	ErrCodeExhausted  = errors.New("could not generate a unique room code")
	ErrTokenExhausted = errors.New("could not generate a unique token")
)

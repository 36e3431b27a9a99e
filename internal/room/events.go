package room

import "time"

// Lifecycle event kinds recorded to the feed.
const (
	EventKindRoomCreated        = "room_created"
	EventKindPlayerJoined       = "player_joined"
	EventKindPlayerConnected    = "player_connected"
	EventKindPlayerDisconnected = "player_disconnected"
	EventKindGameStarted        = "game_started"
)

// LifecycleEvent describes one membership or phase change for external
// sinks. It carries no message payloads; chat stays in-memory only.
type LifecycleEvent struct {
	Room     string
	Username string
	Kind     string
	At       time.Time
}

const feedCapacity = 1024

// Feed buffers lifecycle events for a single draining consumer. Publishing
// never blocks a room operation: when the buffer is full the event is
// dropped.
type Feed struct {
	events chan LifecycleEvent
}

func NewFeed() *Feed {
	return &Feed{events: make(chan LifecycleEvent, feedCapacity)}
}

// Events exposes the receive side of the feed.
func (f *Feed) Events() <-chan LifecycleEvent { return f.events }

// publish is a no-op on a nil feed so the core never needs to care whether
// a sink is configured.
func (f *Feed) publish(roomCode, username, kind string) {
	if f == nil {
		return
	}
	select {
	case f.events <- LifecycleEvent{Room: roomCode, Username: username, Kind: kind, At: time.Now().UTC()}:
	default:
	}
}

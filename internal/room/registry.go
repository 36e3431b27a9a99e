package room

import (
	"math/rand/v2"
	"sort"
	"sync"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen      = 4

	maxCodeAttempts = 1000
)

// Registry is the process-wide map from room code to room. It is strictly
// additive: rooms are never removed for the lifetime of the process, so a
// room survives a transient all-disconnected state and stays rejoinable.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	feed  *Feed
}

// NewRegistry builds an empty registry. feed may be nil when no lifecycle
// sink is configured.
func NewRegistry(feed *Feed) *Registry {
	return &Registry{rooms: make(map[string]*Room), feed: feed}
}

// CreateRoom mints an unused code, constructs the room atomically with its
// host and returns the host's token. The code is assigned before the room
// becomes visible to any other caller.
func (g *Registry) CreateRoom(host, password string) (string, *Room, Token, error) {
	if err := ValidateUsername(host); err != nil {
		return "", nil, Token{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	code, err := g.unusedCode()
	if err != nil {
		return "", nil, Token{}, err
	}
	rm, token, err := newRoom(code, host, password, g.feed)
	if err != nil {
		return "", nil, Token{}, err
	}
	g.rooms[code] = rm
	g.feed.publish(code, host, EventKindRoomCreated)
	return code, rm, token, nil
}

// Lookup resolves a room code.
func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// Snapshot returns a point-in-time view of every room, sorted by code, for
// external observers such as the stats mirror.
func (g *Registry) Snapshot() []Stat {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, rm := range g.rooms {
		rooms = append(rooms, rm)
	}
	g.mu.Unlock()

	// Per-room stats are taken outside the registry lock.
	stats := make([]Stat, 0, len(rooms))
	for _, rm := range rooms {
		stats = append(stats, rm.Stat())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Code < stats[j].Code })
	return stats
}

func (g *Registry) unusedCode() (string, error) {
	for range maxCodeAttempts {
		code := generateCode()
		if _, taken := g.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func generateCode() string {
	buf := make([]byte, codeLen)
	for i := range buf {
		buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(buf)
}

// Stat is a read-only snapshot of one room.
type Stat struct {
	Code      string
	Players   int
	Connected int
	Phase     string // "" while the room is still accepting joins
}

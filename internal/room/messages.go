package room

import "encoding/json"

// Envelope wraps every session frame, inbound and outbound.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "room/chat"
	Body  json.RawMessage `json:"body,omitempty"` // event-specific JSON object
}

// Event discriminants. "room/leave" is reserved for explicit departure and is
// never authored by the current core.
const (
	EventJoin       = "room/join"
	EventLeave      = "room/leave"
	EventConnect    = "room/connect"
	EventDisconnect = "room/disconnect"
	EventWelcome    = "room/welcome"
	EventChat       = "room/chat"
	EventStart      = "room/start"
)

// Phase is the room's coarse game-progress state. A nil *Phase means the
// room is still accepting joins.
type Phase string

// PhasePlaying is the phase entered by a successful "room/start". The state
// machine past this transition belongs to the game rules, not the session
// core.
const PhasePlaying Phase = "playing"

// ─────────────────────────── outbound bodies ────────────────────────────

type JoinBody struct {
	Username string `json:"username"`
}

type LeaveBody struct {
	Username string `json:"username"`
}

type ConnectBody struct {
	Username string `json:"username"`
}

type DisconnectBody struct {
	Username string `json:"username"`
}

type PlayerDescriptor struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// WelcomeBody is delivered once, privately, to a freshly connected player.
type WelcomeBody struct {
	Username string             `json:"username"`
	Players  []PlayerDescriptor `json:"players"`
	Host     string             `json:"host"`
	Phase    *Phase             `json:"phase"`
}

type ChatBody struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ─────────────────────────── inbound bodies ─────────────────────────────

// ChatRequest is the body for inbound "room/chat".
type ChatRequest struct {
	Text string `json:"text"`
}

func mustEnvelope(event string, body any) *Envelope {
	raw, err := json.Marshal(body)
	if err != nil {
		// All bodies are plain structs of strings and ints.
		panic("room: marshal envelope body: " + err.Error())
	}
	return &Envelope{Event: event, Body: raw}
}

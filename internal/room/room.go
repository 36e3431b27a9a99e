package room

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// channelCapacity bounds each player's delivery channel. A slow consumer
	// fills its own channel and throttles delivery to itself only.
	channelCapacity = 10

	// sendTimeout is how long a broadcast waits on one full channel before
	// dropping the event for that recipient.
	sendTimeout = time.Second

	maxTokenAttempts = 100
)

type player struct {
	points int
	send   chan *Envelope // nil while disconnected
}

// Room owns one session's membership, token table, password and phase. Every
// mutating operation runs under mu, so events are authored in a single total
// order per room. Cross-room operations never contend.
type Room struct {
	code string

	mu       sync.Mutex
	tokens   map[Token]string
	password string // "" means no password
	players  map[string]*player
	host     string
	phase    *Phase

	feed *Feed
}

// newRoom constructs a room atomically with its first player (the host) and
// the host's token. Only the Registry creates rooms.
func newRoom(code, host, password string, feed *Feed) (*Room, Token, error) {
	r := &Room{
		code:     code,
		tokens:   make(map[Token]string),
		password: password,
		players:  make(map[string]*player),
		host:     host,
		feed:     feed,
	}
	token, err := r.addPlayer(host)
	if err != nil {
		return nil, Token{}, err
	}
	return r, token, nil
}

func (r *Room) Code() string { return r.code }

// Join registers a new member and returns its token. Joining never implies
// connecting; the new player has no delivery channel until Connect.
func (r *Room) Join(username, password string) (Token, error) {
	if err := ValidateUsername(username); err != nil {
		return Token{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != nil {
		return Token{}, ErrGameStarted
	}
	if r.password != password {
		return Token{}, ErrIncorrectPassword
	}
	token, err := r.addPlayer(username)
	if err != nil {
		return Token{}, err
	}
	r.sendAll(mustEnvelope(EventJoin, JoinBody{Username: username}))
	r.feed.publish(r.code, username, EventKindPlayerJoined)
	return token, nil
}

// Authenticate resolves a token to the username it was issued for. Pure
// lookup, no state change.
func (r *Room) Authenticate(token Token) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.tokens[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return username, nil
}

// Connect allocates the player's delivery channel, privately delivers the
// welcome snapshot to it and then announces the connection to everyone. The
// returned channel is closed by Disconnect and must be drained by exactly
// one bridge.
func (r *Room) Connect(token Token) (string, <-chan *Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.tokens[token]
	if !ok {
		return "", nil, ErrUnauthenticated
	}
	p := r.players[username] // the token table never outlives its player
	if p.send != nil {
		zap.L().Warn("room.connect_while_connected",
			zap.String("room", r.code), zap.String("username", username))
		return username, nil, ErrPlayerConnected
	}
	p.send = make(chan *Envelope, channelCapacity)

	r.sendOne(p, mustEnvelope(EventWelcome, WelcomeBody{
		Username: username,
		Players:  r.descriptors(),
		Host:     r.host,
		Phase:    r.phase,
	}))
	r.sendAll(mustEnvelope(EventConnect, ConnectBody{Username: username}))
	r.feed.publish(r.code, username, EventKindPlayerConnected)

	zap.L().Info("room.connected",
		zap.String("room", r.code), zap.String("username", username))
	return username, p.send, nil
}

// Disconnect clears the connection slot and announces the departure. A
// double disconnect is rejected rather than absorbed: it indicates a caller
// bug worth surfacing.
func (r *Room) Disconnect(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[username]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.send == nil {
		return ErrPlayerDisconnected
	}
	// Safe to close here: broadcasts complete under mu before this
	// operation could start, so nothing is mid-send on the channel.
	close(p.send)
	p.send = nil

	r.sendAll(mustEnvelope(EventDisconnect, DisconnectBody{Username: username}))
	r.feed.publish(r.code, username, EventKindPlayerDisconnected)
	return nil
}

// Handle dispatches one inbound message already attributed to its sender.
func (r *Room) Handle(username string, env *Envelope) error {
	switch env.Event {
	case EventChat:
		var body ChatRequest
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sendAll(mustEnvelope(EventChat, ChatBody{Username: username, Text: body.Text}))
		return nil

	case EventStart:
		r.mu.Lock()
		defer r.mu.Unlock()
		if username != r.host {
			return ErrUnauthorized
		}
		if r.phase != nil {
			return ErrGameStarted
		}
		phase := PhasePlaying
		r.phase = &phase
		r.feed.publish(r.code, username, EventKindGameStarted)
		return nil

	default:
		return ErrUnknownEvent
	}
}

// Stat reports a point-in-time view of the room for external observers.
func (r *Room) Stat() Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stat{Code: r.code, Players: len(r.players)}
	for _, p := range r.players {
		if p.send != nil {
			st.Connected++
		}
	}
	if r.phase != nil {
		st.Phase = string(*r.phase)
	}
	return st
}

// addPlayer inserts a fresh zero-point player and mints its token. Callers
// hold mu, or own the room exclusively as newRoom does.
func (r *Room) addPlayer(username string) (Token, error) {
	if _, ok := r.players[username]; ok {
		return Token{}, ErrPlayerExists
	}
	token, err := r.mintToken(username)
	if err != nil {
		return Token{}, err
	}
	r.players[username] = &player{}
	return token, nil
}

func (r *Room) mintToken(username string) (Token, error) {
	for range maxTokenAttempts {
		token, err := generateToken()
		if err != nil {
			return Token{}, err
		}
		if _, taken := r.tokens[token]; !taken {
			r.tokens[token] = username
			return token, nil
		}
	}
	return Token{}, ErrTokenExhausted
}

func (r *Room) descriptors() []PlayerDescriptor {
	out := make([]PlayerDescriptor, 0, len(r.players))
	for name, p := range r.players {
		out = append(out, PlayerDescriptor{Username: name, Points: p.points})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// sendAll fans one event out to every connected player. Sends are issued
// concurrently so a slow consumer only delays delivery to itself, and a
// channel still full after sendTimeout drops the event for that recipient
// alone. The broadcast itself never fails; a room with zero connected
// players silently drops the event. Callers hold mu.
func (r *Room) sendAll(env *Envelope) {
	var wg sync.WaitGroup
	for _, p := range r.players {
		if p.send == nil {
			continue
		}
		wg.Add(1)
		go func(ch chan<- *Envelope) {
			defer wg.Done()
			deliver(ch, env, r.code)
		}(p.send)
	}
	wg.Wait()
}

func (r *Room) sendOne(p *player, env *Envelope) {
	deliver(p.send, env, r.code)
}

func deliver(ch chan<- *Envelope, env *Envelope, code string) {
	t := time.NewTimer(sendTimeout)
	defer t.Stop()
	select {
	case ch <- env:
	case <-t.C:
		zap.L().Warn("room.delivery_dropped",
			zap.String("room", code), zap.String("event", env.Event))
	}
}

package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gameroomgo/internal/room"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// bridge adapts one physical connection to one room membership: an outbound
// pump draining the room's delivery channel and an inbound pump feeding
// Room.Handle, raced so that the first pump to stop cancels the other.
type bridge struct {
	room     *room.Room
	username string
	conn     *clientConn
	recv     <-chan *room.Envelope
}

// runBridge claims the player's connection slot and pumps the session until
// either side terminates. A Connect failure (e.g. a second concurrent
// connection for the same player) is reported to the peer explicitly before
// the link is dropped.
func runBridge(rm *room.Room, username string, token room.Token, conn *clientConn) {
	_, recv, err := rm.Connect(token)
	if err != nil {
		zap.L().Warn("ws.connect_rejected",
			zap.String("room", rm.Code()), zap.String("username", username), zap.Error(err))
		_ = conn.writeJSON(errorEnvelope(err))
		_ = conn.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		_ = conn.rawConn.Close()
		return
	}

	b := &bridge{room: rm, username: username, conn: conn, recv: recv}
	b.run()
}

func (b *bridge) run() {
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		b.writePump(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		b.readPump()
	}()

	// First pump to stop cancels its sibling. Closing the socket unblocks a
	// pump stuck in a read or write; the context unblocks the write pump
	// waiting on the room channel.
	<-ctx.Done()
	_ = b.conn.rawConn.Close()
	wg.Wait()

	// Both pumps have stopped; this runs exactly once per connection.
	if err := b.room.Disconnect(b.username); err != nil {
		zap.L().Warn("ws.disconnect",
			zap.String("room", b.room.Code()), zap.String("username", b.username), zap.Error(err))
	}
}

// writePump forwards room-authored events to the socket and keeps the
// connection alive with pings. It stops when the write fails, the room
// closes the channel, or the sibling pump cancels it.
func (b *bridge) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-b.recv:
			if !ok {
				_ = b.conn.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := b.conn.writeJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			if err := b.conn.ping(); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound frames and submits them to the room. A transport
// or decode error terminates the session; a handler error is reported back
// on the socket and the session continues.
func (b *bridge) readPump() {
	b.conn.rawConn.SetReadLimit(maxMessageSize)
	_ = b.conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	b.conn.rawConn.SetPongHandler(func(string) error {
		return b.conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := b.conn.rawConn.ReadMessage()
		if err != nil {
			return
		}
		var env room.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			zap.L().Warn("ws.decode",
				zap.String("username", b.username), zap.Error(err))
			return
		}
		if err := b.room.Handle(b.username, &env); err != nil {
			_ = b.conn.writeJSON(errorEnvelope(err))
		}
	}
}

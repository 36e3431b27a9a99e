package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gameroomgo/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := room.NewRegistry(nil)
	engine := gin.New()
	engine.GET("/rooms/:code/ws", NewWsServer(registry).Handle)

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return ts, registry
}

func sessionURL(ts *httptest.Server, code string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/" + code + "/ws"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(token room.Token) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + room.EncodeToken(token)}}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *room.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env room.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return &env
}

func TestSessionWelcomeAndChat(t *testing.T) {
	ts, registry := newTestServer(t)
	code, rm, aliceToken, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)

	alice := dial(t, sessionURL(ts, code), bearer(aliceToken))
	require.Equal(t, room.EventWelcome, readEnvelope(t, alice).Event)
	require.Equal(t, room.EventConnect, readEnvelope(t, alice).Event)

	bobToken, err := rm.Join("bob", "")
	require.NoError(t, err)
	join := readEnvelope(t, alice)
	require.Equal(t, room.EventJoin, join.Event)

	// bob connects using the query-parameter transport
	bob := dial(t, sessionURL(ts, code)+"?token="+url.QueryEscape(room.EncodeToken(bobToken)), nil)
	welcome := readEnvelope(t, bob)
	require.Equal(t, room.EventWelcome, welcome.Event)
	var welcomeBody room.WelcomeBody
	require.NoError(t, json.Unmarshal(welcome.Body, &welcomeBody))
	assert.Equal(t, "bob", welcomeBody.Username)
	assert.Equal(t, "alice", welcomeBody.Host)
	assert.Len(t, welcomeBody.Players, 2)

	require.Equal(t, room.EventConnect, readEnvelope(t, bob).Event)
	require.Equal(t, room.EventConnect, readEnvelope(t, alice).Event)

	// inbound chat fans out to both participants
	require.NoError(t, bob.WriteJSON(map[string]any{
		"event": room.EventChat,
		"body":  map[string]string{"text": "hello"},
	}))
	for _, conn := range []*websocket.Conn{alice, bob} {
		env := readEnvelope(t, conn)
		require.Equal(t, room.EventChat, env.Event)
		var body room.ChatBody
		require.NoError(t, json.Unmarshal(env.Body, &body))
		assert.Equal(t, "bob", body.Username)
		assert.Equal(t, "hello", body.Text)
	}
}

func TestSessionRejectsSecondConnection(t *testing.T) {
	ts, registry := newTestServer(t)
	code, _, token, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)

	first := dial(t, sessionURL(ts, code), bearer(token))
	require.Equal(t, room.EventWelcome, readEnvelope(t, first).Event)

	// the upgrade succeeds, the connection attempt is then rejected
	// explicitly rather than silently dropped
	second := dial(t, sessionURL(ts, code), bearer(token))
	env := readEnvelope(t, second)
	require.Equal(t, "error", env.Event)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(env.Body, &body))
	assert.Equal(t, room.ErrPlayerConnected.Error(), body.Error)

	require.NoError(t, second.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = second.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestSessionHandshakeStatuses(t *testing.T) {
	ts, registry := newTestServer(t)
	code, _, token, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)

	cases := []struct {
		name       string
		url        string
		header     http.Header
		wantStatus int
	}{
		{"unknown room", sessionURL(ts, "ZZZZ"), bearer(token), http.StatusNotFound},
		{"missing token", sessionURL(ts, code), nil, http.StatusUnauthorized},
		{"malformed header", sessionURL(ts, code), http.Header{"Authorization": []string{"Token abc"}}, http.StatusForbidden},
		{"undecodable token", sessionURL(ts, code) + "?token=%21%21", nil, http.StatusForbidden},
		{"unknown token", sessionURL(ts, code), bearer(room.Token{1, 2, 3}), http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tc.url, tc.header)
			require.Error(t, err)
			if conn != nil {
				_ = conn.Close()
			}
			require.NotNil(t, resp)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestSessionPeerCloseReleasesSlot(t *testing.T) {
	ts, registry := newTestServer(t)
	code, rm, token, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)

	conn := dial(t, sessionURL(ts, code), bearer(token))
	require.Equal(t, room.EventWelcome, readEnvelope(t, conn).Event)

	// dropping the transport must cancel both pumps and release the slot
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return rm.Stat().Connected == 0
	}, 3*time.Second, 10*time.Millisecond, "disconnect cleanup never ran")

	// cleanup already ran exactly once: the slot is free again
	assert.ErrorIs(t, rm.Disconnect("alice"), room.ErrPlayerDisconnected)

	reconnect := dial(t, sessionURL(ts, code), bearer(token))
	require.Equal(t, room.EventWelcome, readEnvelope(t, reconnect).Event)
}

func TestSessionMalformedFrameTerminates(t *testing.T) {
	ts, registry := newTestServer(t)
	code, rm, token, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)

	conn := dial(t, sessionURL(ts, code), bearer(token))
	require.Equal(t, room.EventWelcome, readEnvelope(t, conn).Event)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	require.Eventually(t, func() bool {
		return rm.Stat().Connected == 0
	}, 3*time.Second, 10*time.Millisecond, "decode error did not tear the session down")
}

func TestSessionHandlerErrorKeepsSessionAlive(t *testing.T) {
	ts, registry := newTestServer(t)
	code, rm, _, err := registry.CreateRoom("alice", "")
	require.NoError(t, err)
	bobToken, err := rm.Join("bob", "")
	require.NoError(t, err)

	bob := dial(t, sessionURL(ts, code), bearer(bobToken))
	require.Equal(t, room.EventWelcome, readEnvelope(t, bob).Event)
	require.Equal(t, room.EventConnect, readEnvelope(t, bob).Event)

	// a non-host start is refused but does not terminate the session
	require.NoError(t, bob.WriteJSON(map[string]any{"event": room.EventStart}))
	env := readEnvelope(t, bob)
	require.Equal(t, "error", env.Event)

	require.NoError(t, bob.WriteJSON(map[string]any{
		"event": room.EventChat,
		"body":  map[string]string{"text": "still here"},
	}))
	chatEnv := readEnvelope(t, bob)
	assert.Equal(t, room.EventChat, chatEnv.Event)
}

package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gameroomgo/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

var (
	errTokenMissing = errors.New("token missing")
	errTokenInvalid = errors.New("token invalid")
)

// WsServer turns authenticated upgrade requests into room sessions.
type WsServer struct {
	registry *room.Registry
}

func NewWsServer(registry *room.Registry) *WsServer {
	return &WsServer{registry: registry}
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle resolves (room code, bearer token) into (room, username) and only
// then upgrades, so every protocol failure still has an HTTP status to land
// on.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	rm, err := s.registry.Lookup(ginCtx.Param("code"))
	if err != nil {
		ginCtx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	raw, err := extractToken(ginCtx)
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, errTokenMissing) {
			status = http.StatusUnauthorized
		}
		ginCtx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	token, err := room.DecodeToken(raw)
	if err != nil {
		ginCtx.JSON(http.StatusForbidden, gin.H{"error": errTokenInvalid.Error()})
		return
	}
	username, err := rm.Authenticate(token)
	if err != nil {
		ginCtx.JSON(http.StatusForbidden, gin.H{"error": errTokenInvalid.Error()})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}

	go runBridge(rm, username, token, &clientConn{rawConn: rawConn})
}

// extractToken accepts the token from the Authorization header, the "token"
// query parameter or the "token" cookie, in that order. A present but
// malformed Authorization header is invalid, not missing.
func extractToken(ginCtx *gin.Context) (string, error) {
	if h := ginCtx.GetHeader("Authorization"); h != "" {
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return "", errTokenInvalid
		}
		return raw, nil
	}
	if q := ginCtx.Query("token"); q != "" {
		return q, nil
	}
	if ck, err := ginCtx.Cookie("token"); err == nil && ck != "" {
		return ck, nil
	}
	return "", errTokenMissing
}

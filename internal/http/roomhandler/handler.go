package roomhandler

import (
	"errors"
	"net/http"

	"gameroomgo/internal/room"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registry *room.Registry
}

func New(registry *room.Registry) *Handler { return &Handler{registry: registry} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/rooms", h.create)
	r.POST("/rooms/:code/join", h.join)
}

// @Summary		Create a room
// @Description	Creates a room with the caller as host and returns the shareable code plus the host's session token.
// @Tags			Rooms
// @Param			body	body		CreateRoomBody	true	"Host payload"
// @Success		200		{object}	CreateRoomResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/rooms [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateRoomBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	code, _, token, err := h.registry.CreateRoom(body.Username, body.Password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, room.ErrCodeExhausted) || errors.Is(err, room.ErrTokenExhausted) {
			status = http.StatusInternalServerError
		}
		ginCtx.JSON(status, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, &CreateRoomResponse{Code: code, Token: room.EncodeToken(token)})
}

// @Summary		Join a room
// @Description	Adds a new player to an existing room and returns its session token. Joining does not open a connection.
// @Tags			Rooms
// @Param			code	path		string		true	"Room code"	default(AB12)
// @Param			body	body		JoinRoomBody	true	"Join payload"
// @Success		200		{object}	JoinRoomResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/rooms/{code}/join [post]
func (h *Handler) join(ginCtx *gin.Context) {
	var body JoinRoomBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	rm, err := h.registry.Lookup(ginCtx.Param("code"))
	if err != nil {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	}

	token, err := rm.Join(body.Username, body.Password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, room.ErrGameStarted) {
			status = http.StatusConflict
		}
		ginCtx.JSON(status, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, &JoinRoomResponse{Token: room.EncodeToken(token)})
}

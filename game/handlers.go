package game

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"imagine/catalog"
	"imagine/domain"
	"imagine/protocol"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	handshakeTimeout = 10 * time.Second
	joinTimeout      = 5 * time.Second
)

type GameHandler struct {
	lobby            *Lobby
	upgrader         websocket.Upgrader
	handshakeTimeout time.Duration
}

type HandlerOption func(*GameHandler)

// WithHandshakeTimeout bounds the wait for the joinLobby packet.
func WithHandshakeTimeout(d time.Duration) HandlerOption {
	return func(h *GameHandler) { h.handshakeTimeout = d }
}

func NewGameHandler(lobby *Lobby, opts ...HandlerOption) *GameHandler {
	h := &GameHandler{
		lobby: lobby,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the router middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handshakeTimeout: handshakeTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FiguresHandler lists the figure catalog, filtered by alias prefix when q is
// set.
func (h *GameHandler) FiguresHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, catalog.Search(ctx.Query("q")))
}

func (h *GameHandler) RoomsHandler(ctx *gin.Context) {
	descs := h.lobby.RoomDescriptions(ctx.Request.Context())
	if descs == nil {
		descs = []domain.RoomDescription{}
	}
	ctx.JSON(http.StatusOK, descs)
}

func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn, 2*h.lobby.PingInterval())
	h.serve(socket)
}

// serve waits for the joinLobby packet, places the player and then runs its
// pumps until the socket goes away.
func (h *GameHandler) serve(socket NetworkSession) {
	join, err := h.readJoin(socket)
	if err != nil {
		log.Debug().Err(err).Msg("handshake failed")
		socket.Close(err.Error())
		return
	}
	socket.SetReadDeadline(time.Now().Add(2 * h.lobby.PingInterval()))

	roomName := strings.TrimSpace(join.RoomName)
	if roomName == "" {
		h.refuse(socket, join.Ack, ErrInvalidRoomName)
		return
	}

	player := NewPlayer(strings.TrimSpace(join.PlayerName), socket)

	joinCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	r, err := h.lobby.Join(joinCtx, player, roomName, join.Ack)
	cancel()
	if err != nil {
		h.refuse(socket, join.Ack, err)
		return
	}

	go player.WritePump()
	player.ReadPump(r)
}

func (h *GameHandler) readJoin(socket NetworkSession) (protocol.JoinLobby, error) {
	socket.SetReadDeadline(time.Now().Add(h.handshakeTimeout))

	data, err := socket.Read()
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return protocol.JoinLobby{}, ErrHandshakeTimeout
		}
		return protocol.JoinLobby{}, err
	}

	msg, err := protocol.UnmarshalClient(data)
	if err != nil {
		return protocol.JoinLobby{}, err
	}
	join, ok := msg.(protocol.JoinLobby)
	if !ok {
		return protocol.JoinLobby{}, ErrExpectedJoin
	}
	return join, nil
}

func (h *GameHandler) refuse(socket NetworkSession, ack uint32, err error) {
	reason := "join-failed"
	switch {
	case errors.Is(err, domain.ErrRoomFull), errors.Is(err, domain.ErrRoomClosed),
		errors.Is(err, ErrInvalidRoomName), errors.Is(err, ErrLobbyClosed):
		reason = err.Error()
	default:
		log.Error().Err(err).Msg("join failed")
	}

	socket.Write(protocol.MarshalServer(protocol.JoinError{Ack: ack, Reason: reason}))
	socket.Close(reason)
}

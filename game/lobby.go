package game

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"imagine/domain"
	"imagine/internal/ticker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxPlayers   = 8
	DefaultPingInterval = 30 * time.Second
	joinAttempts        = 3
)

type roomHandle struct {
	room   *room
	cancel context.CancelFunc
}

// roomRequest asks for the room called name. stale is a room the caller found
// closed; it gets replaced.
type roomRequest struct {
	name   string
	stale  *room
	result chan *room
}

// Lobby is the room registry. Rooms are created on the first join and dropped
// once their last player left.
type Lobby struct {
	maxPlayers    int
	pingInterval  time.Duration
	subjects      SubjectSource
	tickerCreator ticker.Creator

	rooms        map[string]roomHandle
	descriptions map[string]domain.RoomDescription
	wg           sync.WaitGroup

	roomReqs       chan roomRequest
	removeRoomChan chan *room
	roomDescUpdate chan domain.RoomDescription
	roomDescsReq   chan chan []domain.RoomDescription
	quit           chan struct{}
	done           chan struct{}
	log            zerolog.Logger
}

type LobbyOption func(*Lobby)

func WithMaxPlayers(n int) LobbyOption {
	return func(l *Lobby) { l.maxPlayers = n }
}

func WithPingInterval(d time.Duration) LobbyOption {
	return func(l *Lobby) { l.pingInterval = d }
}

func NewLobby(subjects SubjectSource, tickerCreator ticker.Creator, opts ...LobbyOption) *Lobby {
	l := &Lobby{
		maxPlayers:     DefaultMaxPlayers,
		pingInterval:   DefaultPingInterval,
		subjects:       subjects,
		tickerCreator:  tickerCreator,
		rooms:          map[string]roomHandle{},
		descriptions:   map[string]domain.RoomDescription{},
		roomReqs:       make(chan roomRequest, 256),
		removeRoomChan: make(chan *room, 32),
		roomDescUpdate: make(chan domain.RoomDescription, 256),
		roomDescsReq:   make(chan chan []domain.RoomDescription, 256),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		log:            log.With().Str("component", "lobby").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lobby) PingInterval() time.Duration {
	return l.pingInterval
}

// Done is closed once Run returned and every room stopped.
func (l *Lobby) Done() <-chan struct{} {
	return l.done
}

// LobbyActor serves registry requests until ctx is done, then stops every
// room and waits for them.
func (l *Lobby) LobbyActor(ctx context.Context, started chan struct{}) {
	pingTicker, stop := l.tickerCreator.Create(l.pingInterval)
	defer stop()

	close(started)

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return

		case <-pingTicker:
			for _, h := range l.rooms {
				h.room.Ping()
			}

		case req := <-l.roomReqs:
			req.result <- l.handleRoomRequest(ctx, req)

		case r := <-l.removeRoomChan:
			l.handleRemoveRoom(r)

		case desc := <-l.roomDescUpdate:
			if _, ok := l.rooms[desc.Name]; ok {
				l.descriptions[desc.Name] = desc
			}

		case req := <-l.roomDescsReq:
			l.handleGetRoomDescriptions(req)
		}
	}
}

func (l *Lobby) shutdown() {
	close(l.quit)
	for name, h := range l.rooms {
		h.cancel()
		delete(l.rooms, name)
	}
	l.wg.Wait()
	close(l.done)
	l.log.Info().Msg("lobby stopped")
}

func (l *Lobby) handleRoomRequest(ctx context.Context, req roomRequest) *room {
	name := req.name
	if h, ok := l.rooms[name]; ok {
		if h.room != req.stale {
			return h.room
		}
		h.cancel()
	}

	r := newRoom(name, l.maxPlayers, l.subjects, l)
	roomCtx, cancel := context.WithCancel(ctx)
	l.rooms[name] = roomHandle{room: r, cancel: cancel}
	l.descriptions[name] = r.description()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		r.Run(roomCtx)
	}()
	return r
}

func (l *Lobby) handleRemoveRoom(r *room) {
	h, ok := l.rooms[r.name]
	if !ok || h.room != r {
		return
	}
	h.cancel()
	delete(l.rooms, r.name)
	delete(l.descriptions, r.name)
	l.log.Info().Str("room", r.name).Msg("room removed")
}

func (l *Lobby) handleGetRoomDescriptions(req chan []domain.RoomDescription) {
	descs := make([]domain.RoomDescription, 0, len(l.descriptions))
	for _, d := range l.descriptions {
		descs = append(descs, d)
	}
	slices.SortFunc(descs, func(a, b domain.RoomDescription) int {
		return strings.Compare(a.Name, b.Name)
	})
	req <- descs
}

func (l *Lobby) RequestUpdateDescription(desc domain.RoomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *Lobby) RequestRemoveRoom(r *room) {
	select {
	case l.removeRoomChan <- r:
	case <-l.quit:
	}
}

func (l *Lobby) roomFor(ctx context.Context, name string, stale *room) (*room, error) {
	req := roomRequest{name: name, stale: stale, result: make(chan *room, 1)}
	select {
	case l.roomReqs <- req:
	case <-l.quit:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-req.result:
		return r, nil
	case <-l.quit:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Join places p in the named room, creating it when needed. A room that
// emptied between lookup and join is replaced and the join retried.
func (l *Lobby) Join(ctx context.Context, p *Player, roomName string, ack uint32) (*room, error) {
	var (
		r   *room
		err error
	)
	for range joinAttempts {
		r, err = l.roomFor(ctx, roomName, r)
		if err != nil {
			return nil, err
		}

		err = r.RequestJoin(ctx, p, ack)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, domain.ErrRoomClosed) {
			return nil, err
		}
	}
	return nil, err
}

func (l *Lobby) RoomDescriptions(ctx context.Context) []domain.RoomDescription {
	respChan := make(chan []domain.RoomDescription, 1)
	select {
	case l.roomDescsReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-l.quit:
			return nil
		case <-ctx.Done():
			return nil
		}
	case <-l.quit:
		return nil
	case <-ctx.Done():
		return nil
	}
}

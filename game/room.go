package game

import (
	"context"
	"fmt"

	"imagine/domain"
	"imagine/protocol"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type RoomPhase int

const (
	PhaseWaitingForArtist RoomPhase = iota
	PhaseSubjectPending
	PhaseRoundActive
	PhaseRoundResolved
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseWaitingForArtist:
		return "waiting-for-artist"
	case PhaseSubjectPending:
		return "subject-pending"
	case PhaseRoundActive:
		return "round-active"
	case PhaseRoundResolved:
		return "round-resolved"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

const (
	subjectChoicesCount = 3
	maxCanvasLogBytes   = 1 << 20
)

// envelope is one inbound packet. Canvas packets keep their raw bytes and are
// never decoded by the server.
type envelope struct {
	from     *Player
	msg      protocol.ClientMessage
	raw      []byte
	keyframe bool
}

type roomJoinRequest struct {
	player *Player
	ack    uint32
	result chan error
}

type room struct {
	name       string
	maxPlayers int
	subjects   SubjectSource
	parent     roomParent

	phase            RoomPhase
	players          []*Player
	artist           *Player
	joinCount        int
	choices          []domain.Subject
	currentSubject   *domain.Subject
	previousSubjects []string

	// canvas packets relayed since the current artist was assigned
	canvasLog      [][]byte
	canvasLogBytes int
	canvasLogFull  bool

	// set once the last player left; the lobby replaces the room
	closed bool

	inbox         chan envelope
	joinRequests  chan roomJoinRequest
	leaveRequests chan *Player
	pings         chan struct{}
	done          chan struct{}
	log           zerolog.Logger
}

func newRoom(name string, maxPlayers int, subjects SubjectSource, parent roomParent) *room {
	return &room{
		name:          name,
		maxPlayers:    maxPlayers,
		subjects:      subjects,
		parent:        parent,
		phase:         PhaseWaitingForArtist,
		players:       make([]*Player, 0, maxPlayers),
		inbox:         make(chan envelope, 1024),
		joinRequests:  make(chan roomJoinRequest),
		leaveRequests: make(chan *Player, 64),
		pings:         make(chan struct{}, 1),
		done:          make(chan struct{}),
		log:           log.With().Str("room", name).Logger(),
	}
}

func (r *room) description() domain.RoomDescription {
	return domain.RoomDescription{Name: r.name, PlayersCount: len(r.players), MaxPlayers: r.maxPlayers}
}

// RequestJoin blocks until the room accepted or refused p.
func (r *room) RequestJoin(ctx context.Context, p *Player, ack uint32) error {
	req := roomJoinRequest{player: p, ack: ack, result: make(chan error, 1)}
	select {
	case r.joinRequests <- req:
	case <-r.done:
		return domain.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-r.done:
		return domain.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *room) RequestLeave(p *Player) {
	if r.stopped() {
		return
	}
	select {
	case r.leaveRequests <- p:
	case <-r.done:
	}
}

// Send hands an inbound packet to the room. It reports false once the room
// stopped.
func (r *room) Send(e envelope) bool {
	if r.stopped() {
		return false
	}
	select {
	case r.inbox <- e:
		return true
	case <-r.done:
		return false
	}
}

// stopped reports whether Run returned. The buffered mailboxes still accept
// sends after that.
func (r *room) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *room) Ping() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

func (r *room) broadcast(m protocol.ServerMessage, except *Player) {
	data := protocol.MarshalServer(m)
	for _, p := range r.players {
		if p != except {
			p.Send(data)
		}
	}
}

func (r *room) sendToGuessers(m protocol.ServerMessage) {
	r.broadcast(m, r.artist)
}

func (r *room) indexOf(p *Player) int {
	for i, pl := range r.players {
		if pl == p {
			return i
		}
	}
	return -1
}

func (r *room) otherPlayers(p *Player) []domain.ClientPlayer {
	others := make([]domain.ClientPlayer, 0, len(r.players))
	for _, pl := range r.players {
		if pl != p {
			others = append(others, pl.clientView())
		}
	}
	return others
}

func (r *room) isArtist(p *Player) bool {
	return p != nil && p == r.artist
}

func (r *room) roundIsActive() bool {
	return r.phase == PhaseRoundActive
}

// setArtist gives p the artist role, demotes everyone else and starts a fresh
// canvas.
func (r *room) setArtist(p *Player) {
	for _, pl := range r.players {
		pl.role = domain.RoleGuesser
	}
	p.role = domain.RoleArtist
	r.artist = p
	r.resetCanvasLog()
}

func (r *room) resetCanvasLog() {
	r.canvasLog = nil
	r.canvasLogBytes = 0
	r.canvasLogFull = false
}

func (r *room) recordCanvas(data []byte, keyframe bool) {
	if keyframe {
		r.resetCanvasLog()
	} else if r.canvasLogFull {
		return
	}

	if r.canvasLogBytes+len(data) > maxCanvasLogBytes {
		r.log.Warn().Int("bytes", r.canvasLogBytes).Msg("canvas log full, waiting for a keyframe")
		r.resetCanvasLog()
		r.canvasLogFull = true
		return
	}
	r.canvasLog = append(r.canvasLog, data)
	r.canvasLogBytes += len(data)
}

func (r *room) updateDescription() {
	r.parent.RequestUpdateDescription(r.description())
}

// release closes every remaining player inbox. Called once the actor stops.
func (r *room) release() {
	for _, p := range r.players {
		close(p.inbox)
	}
	r.players = nil
	r.artist = nil
}

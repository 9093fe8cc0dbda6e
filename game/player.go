package game

import (
	"imagine/domain"
	"imagine/protocol"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	playerInboxSize = 256
	packetsPerSec   = 20
	packetsBurst    = 40
)

// Player is owned by the room it joined: role, score and inbox are only
// touched from that room's goroutine.
type Player struct {
	guid        string
	name        string
	role        domain.Role
	score       int
	rateLimiter *rate.Limiter
	socket      NetworkSession
	inbox       chan []byte
	pingChan    chan struct{}
	log         zerolog.Logger

	// welcome is written before anything in the inbox: the join ack and the
	// canvas replay. It is set by the room before the write pump starts.
	welcome [][]byte
}

func NewPlayer(name string, socket NetworkSession) *Player {
	guid := uuid.NewString()
	return &Player{
		guid:        guid,
		name:        name,
		rateLimiter: rate.NewLimiter(packetsPerSec, packetsBurst),
		socket:      socket,
		inbox:       make(chan []byte, playerInboxSize),
		pingChan:    make(chan struct{}, 1),
		log:         log.With().Str("player", guid).Logger(),
	}
}

func (p *Player) Guid() string {
	return p.guid
}

func (p *Player) clientView() domain.ClientPlayer {
	return domain.ClientPlayer{Guid: p.guid, Name: p.name, Role: p.role, Score: p.score}
}

// Send queues data for the write pump. A slow client loses packets instead of
// stalling the room.
func (p *Player) Send(data []byte) {
	select {
	case p.inbox <- data:
	default:
		p.log.Warn().Msg("inbox full, dropping packet")
	}
}

func (p *Player) sendMessage(m protocol.ServerMessage) {
	p.Send(protocol.MarshalServer(m))
}

func (p *Player) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// ReadPump forwards the player's packets to r until the socket fails, then
// asks r to remove the player.
func (p *Player) ReadPump(r *room) {
	defer r.RequestLeave(p)

	for {
		data, err := p.socket.Read()
		if err != nil {
			p.log.Debug().Err(err).Msg("read pump stopped")
			return
		}

		if !p.rateLimiter.Allow() {
			p.log.Debug().Msg("rate limited, dropping packet")
			continue
		}

		envelope := envelope{from: p}

		if ok, keyframe := protocol.IsCanvasPacket(data); ok {
			envelope.raw = data
			envelope.keyframe = keyframe
		} else {
			msg, err := protocol.UnmarshalClient(data)
			if err != nil {
				p.log.Debug().Err(err).Msg("dropping malformed packet")
				continue
			}
			envelope.msg = msg
		}

		if !r.Send(envelope) {
			return
		}
	}
}

// WritePump writes the welcome packets, then drains the inbox until the room
// closes it.
func (p *Player) WritePump() {
	defer p.socket.Close("")

	welcome := p.welcome
	p.welcome = nil
	for _, data := range welcome {
		if err := p.socket.Write(data); err != nil {
			p.log.Debug().Err(err).Msg("write pump stopped")
			return
		}
	}

	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			if err := p.socket.Write(data); err != nil {
				p.log.Debug().Err(err).Msg("write pump stopped")
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				p.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

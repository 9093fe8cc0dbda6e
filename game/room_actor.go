package game

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"imagine/domain"
	"imagine/protocol"
)

const subjectQueryTimeout = 5 * time.Second

// Run processes the room mailbox one message at a time until ctx is done.
func (r *room) Run(ctx context.Context) {
	defer close(r.done)
	defer r.release()

	r.log.Info().Msg("room started")
	defer r.log.Info().Msg("room stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.joinRequests:
			req.result <- r.handleJoinRequest(req)
		case p := <-r.leaveRequests:
			r.handleRemovePlayer(p)
		case e := <-r.inbox:
			r.handleEnvelope(ctx, e)
		case <-r.pings:
			r.handlePing()
		}
	}
}

func (r *room) handleJoinRequest(req roomJoinRequest) error {
	if r.closed {
		return domain.ErrRoomClosed
	}
	if len(r.players) >= r.maxPlayers {
		return domain.ErrRoomFull
	}

	p := req.player
	r.joinCount++
	if strings.TrimSpace(p.name) == "" {
		p.name = fmt.Sprintf("Player %d", r.joinCount)
	}

	others := r.otherPlayers(p)
	r.players = append(r.players, p)
	if r.artist == nil {
		r.setArtist(p)
		r.phase = PhaseWaitingForArtist
	} else {
		p.role = domain.RoleGuesser
	}

	// The replay can outgrow the inbox, so it travels with the ack.
	p.welcome = make([][]byte, 0, len(r.canvasLog)+1)
	p.welcome = append(p.welcome, protocol.MarshalServer(protocol.JoinAck{Ack: req.ack, Player: p.clientView(), Others: others}))
	p.welcome = append(p.welcome, r.canvasLog...)
	r.broadcast(protocol.NewPlayer{Player: p.clientView()}, p)

	r.log.Info().Str("player", p.guid).Str("role", p.role.String()).Msg("player joined")
	r.updateDescription()
	return nil
}

func (r *room) handleRemovePlayer(p *Player) {
	i := r.indexOf(p)
	if i == -1 {
		return
	}
	r.players = slices.Delete(r.players, i, i+1)
	close(p.inbox)
	r.log.Info().Str("player", p.guid).Msg("player left")

	if len(r.players) == 0 {
		r.closed = true
		r.artist = nil
		r.parent.RequestRemoveRoom(r)
		return
	}

	r.broadcast(protocol.PlayerDisconnected{Guid: p.guid}, nil)

	if r.isArtist(p) {
		r.setArtist(r.players[0])
		r.currentSubject = nil
		r.choices = nil
		r.phase = PhaseWaitingForArtist
		r.broadcast(protocol.NewArtist{Guid: r.artist.guid}, nil)
	}
	r.updateDescription()
}

func (r *room) handlePing() {
	for _, p := range r.players {
		p.Ping()
	}
}

func (r *room) handleEnvelope(ctx context.Context, e envelope) {
	if r.indexOf(e.from) == -1 {
		return
	}

	if e.raw != nil {
		r.handleCanvasPacket(e)
		return
	}

	switch msg := e.msg.(type) {
	case protocol.Ready:
		r.handleReady(ctx, e.from)
	case protocol.SubjectChosen:
		r.handleSubjectChosen(e.from, msg.Subject)
	case protocol.Guess:
		r.handleGuess(e.from, msg)
	default:
		r.log.Debug().Str("player", e.from.guid).Msgf("ignoring %T", msg)
	}
}

// handleCanvasPacket relays the bytes as they came in. A stale packet from a
// previous artist is relayed too since packets carry no sequence number.
func (r *room) handleCanvasPacket(e envelope) {
	for _, p := range r.players {
		if p != e.from {
			p.Send(e.raw)
		}
	}
	r.recordCanvas(e.raw, e.keyframe)
}

func (r *room) handleReady(ctx context.Context, p *Player) {
	if !r.isArtist(p) {
		if r.roundIsActive() && r.currentSubject != nil {
			p.sendMessage(protocol.NewSubject{Placeholder: domain.NewPlaceholder(*r.currentSubject)})
		}
		return
	}

	if r.phase == PhaseRoundActive {
		r.log.Debug().Msg("artist ready during an active round")
		return
	}

	choices, err := r.drawSubjects(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("could not draw subjects")
		return
	}

	r.choices = choices
	r.phase = PhaseSubjectPending
	p.sendMessage(protocol.SubjectChoices{Subjects: choices})
}

// drawSubjects skips subjects already played in this room and falls back to
// the whole catalog once everything was played.
func (r *room) drawSubjects(ctx context.Context) ([]domain.Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, subjectQueryTimeout)
	defer cancel()

	choices, err := r.subjects.RandomSubjects(ctx, subjectChoicesCount, r.previousSubjects)
	if err != nil {
		return nil, err
	}
	if len(choices) > 0 {
		return choices, nil
	}

	// An exhausted catalog would leave the artist without choices, so played
	// subjects come back instead of an empty offer.
	r.log.Info().Msg("every subject was played, reusing the catalog")
	choices, err = r.subjects.RandomSubjects(ctx, subjectChoicesCount, nil)
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, domain.ErrNoSubjects
	}
	return choices, nil
}

func (r *room) handleSubjectChosen(p *Player, s domain.Subject) {
	if !r.isArtist(p) || r.phase != PhaseSubjectPending {
		return
	}

	i := slices.IndexFunc(r.choices, func(c domain.Subject) bool { return c.Text == s.Text })
	if i == -1 {
		r.log.Debug().Str("subject", s.Text).Msg("chosen subject was not offered")
		return
	}

	subject := r.choices[i]
	r.currentSubject = &subject
	r.choices = nil
	r.phase = PhaseRoundActive
	r.sendToGuessers(protocol.NewSubject{Placeholder: domain.NewPlaceholder(subject)})
}

func (r *room) handleGuess(p *Player, g protocol.Guess) {
	if g.Text == "" || r.isArtist(p) || r.currentSubject == nil || !r.roundIsActive() {
		p.sendMessage(protocol.GuessResult{Ack: g.Ack, Correct: false})
		return
	}

	r.broadcast(protocol.PlayerGuess{Guid: p.guid, Guess: g.Text}, p)

	if !r.currentSubject.IsGuessedBy(g.Text) {
		p.sendMessage(protocol.GuessResult{Ack: g.Ack, Correct: false})
		return
	}

	artist := r.artist
	p.score++
	artist.score++
	r.broadcast(protocol.WinnerOfRound{
		Guid:        p.guid,
		Score:       p.score,
		ArtistGuid:  artist.guid,
		ArtistScore: artist.score,
	}, nil)

	if err := r.startNextRound(); err != nil {
		r.log.Error().Err(err).Msg("could not start next round")
	}
	p.sendMessage(protocol.GuessResult{Ack: g.Ack, Correct: true})
}

// startNextRound retires the current subject and hands the artist role to the
// next player in join order.
func (r *room) startNextRound() error {
	r.previousSubjects = append(r.previousSubjects, r.currentSubject.Text)
	r.currentSubject = nil
	r.phase = PhaseRoundResolved

	if len(r.players) == 0 {
		return ErrNoNextArtist
	}

	next := 0
	if i := r.indexOf(r.artist); i != -1 && i < len(r.players)-1 {
		next = i + 1
	}
	r.setArtist(r.players[next])
	r.broadcast(protocol.NewArtist{Guid: r.artist.guid}, nil)
	return nil
}

package client

import (
	"context"
	"sync"

	"imagine/canvassync"
	"imagine/domain"
	"imagine/internal/ticker"
	"imagine/protocol"
	"imagine/scene"
)

type Guesser interface {
	Guess(ctx context.Context, text string) (bool, error)
}

// GuesserView replays the artist's canvas and keeps the placeholder of the
// current subject.
type GuesserView struct {
	replica *canvassync.Replica
	guesser Guesser

	mu          sync.Mutex
	placeholder domain.Placeholder
}

func NewGuesserView(width float64, g Guesser, opts ...canvassync.ReplicaOption) *GuesserView {
	return &GuesserView{
		replica: canvassync.NewReplica(width, opts...),
		guesser: g,
	}
}

func (v *GuesserView) Run(ctx context.Context, tickers ticker.Creator) {
	v.replica.Run(ctx, tickers)
}

// Handle feeds a server message to the view. Messages the view has no use for
// are ignored.
func (v *GuesserView) Handle(ctx context.Context, m protocol.ServerMessage) error {
	switch m := m.(type) {
	case protocol.CanvasEvent:
		return v.replica.Deliver(ctx, m.Data)
	case protocol.NewSubject:
		v.mu.Lock()
		v.placeholder = m.Placeholder
		v.mu.Unlock()
	case protocol.NewArtist, protocol.WinnerOfRound:
		v.mu.Lock()
		v.placeholder = domain.Placeholder{}
		v.mu.Unlock()
	}
	return nil
}

func (v *GuesserView) Placeholder() domain.Placeholder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placeholder
}

// SubmitLetters turns typed letters into a guess shaped like the placeholder
// and sends it.
func (v *GuesserView) SubmitLetters(ctx context.Context, letters string) (bool, error) {
	return v.guesser.Guess(ctx, domain.JoinGuess(letters, v.Placeholder()))
}

// Snapshot returns the replica scene as currently displayed, animations
// included.
func (v *GuesserView) Snapshot(ctx context.Context) (scene.Snapshot, error) {
	var snap scene.Snapshot
	err := v.replica.View(ctx, func(s *scene.Scene) {
		snap = s.Snapshot()
	})
	return snap, err
}

package client

import (
	"context"
	"fmt"

	"imagine/canvassync"
	"imagine/catalog"
	"imagine/history"
	"imagine/internal/ticker"
	"imagine/scene"
)

// ArtistView is the authoring side of a round: a scene streamed to the room
// through an Outbound channel plus the local undo history. Every edit is
// committed to the history once it is finished, like a mouse-up in a drawing
// app. Run must be running for any edit to complete.
type ArtistView struct {
	outbound *canvassync.Outbound
	history  *history.Stack
}

func NewArtistView(width float64, sender canvassync.Sender, tickers ticker.Creator, opts ...canvassync.OutboundOption) *ArtistView {
	return &ArtistView{
		outbound: canvassync.NewOutbound(scene.New(width), sender, tickers, opts...),
		history:  history.New(),
	}
}

func (v *ArtistView) Run(ctx context.Context) {
	v.outbound.Run(ctx)
}

// edit runs fn between two ticks and commits the result.
func (v *ArtistView) edit(ctx context.Context, fn func(*scene.Scene)) error {
	return v.outbound.Do(ctx, func(s *scene.Scene) {
		fn(s)
		v.history.Push(s.Snapshot())
	})
}

// AddFigure places a catalog figure at the canvas center and returns the name
// it was given.
func (v *ArtistView) AddFigure(ctx context.Context, src string) (string, error) {
	if _, ok := catalog.Lookup(src); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownImage, src)
	}
	var name string
	err := v.edit(ctx, func(s *scene.Scene) {
		name = s.Add(src).Name
	})
	return name, err
}

// Modify hands the scene to fn for a free form edit, for example a grouped
// selection being dragged, and commits it afterwards.
func (v *ArtistView) Modify(ctx context.Context, fn func(*scene.Scene)) error {
	return v.edit(ctx, fn)
}

// Move selects a single object and drags it by dx, dy pixels.
func (v *ArtistView) Move(ctx context.Context, name string, dx, dy float64) error {
	return v.transform(ctx, name, func(o *scene.Object) {
		o.Left += dx
		o.Top += dy
	})
}

func (v *ArtistView) Rotate(ctx context.Context, name string, degrees float64) error {
	return v.transform(ctx, name, func(o *scene.Object) {
		o.Angle += degrees
	})
}

func (v *ArtistView) Scale(ctx context.Context, name string, factor float64) error {
	return v.transform(ctx, name, func(o *scene.Object) {
		o.Scale *= factor
	})
}

func (v *ArtistView) transform(ctx context.Context, name string, fn func(*scene.Object)) error {
	found := false
	err := v.outbound.Do(ctx, func(s *scene.Scene) {
		s.Select(name)
		o, ok := s.Get(name)
		if !ok {
			return
		}
		found = true
		fn(o)
		v.history.Push(s.Snapshot())
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, name)
	}
	return nil
}

// Remove deletes the named objects, ignoring names not in the scene.
func (v *ArtistView) Remove(ctx context.Context, names ...string) error {
	return v.edit(ctx, func(s *scene.Scene) {
		s.Discard()
		for _, name := range names {
			s.Remove(name)
		}
	})
}

// Clear empties the scene and forgets the history, as at the start of a new
// round.
func (v *ArtistView) Clear(ctx context.Context) error {
	return v.outbound.Do(ctx, func(s *scene.Scene) {
		s.Clear()
		v.history = history.New()
	})
}

// Undo steps the history back and returns the names of the objects it
// touched. Peers see the result as ordinary deltas on the next tick.
func (v *ArtistView) Undo(ctx context.Context) ([]string, error) {
	var touched []string
	err := v.outbound.Do(ctx, func(s *scene.Scene) {
		touched = v.history.Undo(s)
	})
	return touched, err
}

func (v *ArtistView) Redo(ctx context.Context) ([]string, error) {
	var touched []string
	err := v.outbound.Do(ctx, func(s *scene.Scene) {
		touched = v.history.Redo(s)
	})
	return touched, err
}

func (v *ArtistView) Snapshot(ctx context.Context) (scene.Snapshot, error) {
	var snap scene.Snapshot
	err := v.outbound.Do(ctx, func(s *scene.Scene) {
		snap = s.Snapshot()
	})
	return snap, err
}

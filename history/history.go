// Package history keeps the local undo/redo stack of an authoring scene.
// Entries are full snapshots; moving through the stack reconciles the live
// scene against the target entry. Nothing here is ever sent to peers: an undo
// shows up remotely as ordinary deltas on the next tick.
package history

import (
	"slices"

	"imagine/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultLimit = 40

type Stack struct {
	entries []scene.Snapshot
	index   int
	limit   int
	log     zerolog.Logger
}

type Option func(*Stack)

// WithLimit bounds the number of kept entries; the oldest are dropped first.
// Zero keeps everything.
func WithLimit(n int) Option {
	return func(h *Stack) { h.limit = n }
}

// New returns a stack holding the empty scene at index 0.
func New(opts ...Option) *Stack {
	h := &Stack{
		entries: []scene.Snapshot{{}},
		limit:   DefaultLimit,
		log:     log.With().Str("component", "history").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Stack) Index() int {
	return h.index
}

func (h *Stack) Len() int {
	return len(h.entries)
}

func (h *Stack) CanUndo() bool {
	return h.index > 0
}

func (h *Stack) CanRedo() bool {
	return h.index < len(h.entries)-1
}

// Push records snap after the current entry, discarding any redo branch.
func (h *Stack) Push(snap scene.Snapshot) {
	h.entries = append(h.entries[:h.index+1], snap.Clone())
	h.index = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = slices.Delete(h.entries, 0, drop)
		h.index -= drop
	}
}

func (h *Stack) Undo(s *scene.Scene) []string {
	touched, _ := h.JumpTo(s, h.index-1)
	return touched
}

func (h *Stack) Redo(s *scene.Scene) []string {
	touched, _ := h.JumpTo(s, h.index+1)
	return touched
}

// JumpTo reconciles s with the entry at index and selects the objects it added
// or changed. Out of range indexes and the current index are no-ops.
func (h *Stack) JumpTo(s *scene.Scene, index int) (touched []string, ok bool) {
	if index < 0 || index >= len(h.entries) || index == h.index {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Int("index", index).Msg("Reconcile failed")
			touched, ok = nil, false
		}
	}()

	touched = Reconcile(s, h.entries[index])
	h.index = index
	return touched, true
}

// Reconcile makes s match target: objects missing from target are removed,
// differing ones are updated and absent ones are created. The touched objects
// become the active selection and are returned.
func Reconcile(s *scene.Scene, target scene.Snapshot) []string {
	s.Discard()

	var touched []string
	for _, o := range s.Objects() {
		saved, ok := target[o.Name]
		if !ok {
			s.Remove(o.Name)
			continue
		}
		want := scene.Transform{Left: saved.Left, Top: saved.Top, Angle: saved.Angle, Scale: saved.Scale}
		if o.Transform != want {
			o.Transform = want
			touched = append(touched, o.Name)
		}
	}

	for _, name := range target.Names() {
		if _, exists := s.Get(name); exists {
			continue
		}
		saved := target[name]
		t := scene.Transform{Left: saved.Left, Top: saved.Top, Angle: saved.Angle, Scale: saved.Scale}
		if _, err := s.AddNamed(name, saved.Source, t); err != nil {
			log.Warn().Err(err).Str("object", name).Msg("Failed to restore object")
			continue
		}
		touched = append(touched, name)
	}

	if len(touched) > 0 {
		s.Select(touched...)
	}
	return touched
}

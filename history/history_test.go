package history

import (
	"fmt"
	"testing"

	"imagine/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_UndoRedoRestoresSnapshot(t *testing.T) {
	t.Parallel()
	s := scene.New(800)
	h := New()

	o := s.Add("key.svg")
	o.Left, o.Angle = 120, 15
	snap := s.Snapshot()
	h.Push(snap)

	touched := h.Undo(s)
	assert.Empty(t, touched)
	assert.Equal(t, 0, s.Len())

	touched = h.Redo(s)
	assert.Equal(t, []string{o.Name}, touched)
	assert.Equal(t, snap, s.Snapshot())
}

func TestStack_BoundsAreNoOps(t *testing.T) {
	t.Parallel()
	s := scene.New(800)
	h := New()
	s.Add("key.svg")
	h.Push(s.Snapshot())
	snap := s.Snapshot()

	h.Redo(s)
	assert.Equal(t, 1, h.Index())
	assert.Equal(t, snap, s.Snapshot())

	h.Undo(s)
	h.Undo(s)
	h.Undo(s)
	assert.Equal(t, 0, h.Index())
	assert.False(t, h.CanUndo())

	_, ok := h.JumpTo(s, 0)
	assert.False(t, ok, "jumping to the current index")
	_, ok = h.JumpTo(s, 7)
	assert.False(t, ok)
}

func TestStack_PushTruncatesRedoBranch(t *testing.T) {
	t.Parallel()
	s := scene.New(800)
	h := New()

	a := s.Add("a.svg")
	h.Push(s.Snapshot())
	a.Left = 10
	h.Push(s.Snapshot())
	a.Left = 20
	h.Push(s.Snapshot())
	require.Equal(t, 4, h.Len())

	h.Undo(s)
	h.Undo(s)
	assert.Equal(t, 1, h.Index())
	assert.True(t, h.CanRedo())

	s.Add("b.svg")
	h.Push(s.Snapshot())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Index())
	assert.False(t, h.CanRedo())
}

func TestStack_Limit(t *testing.T) {
	t.Parallel()
	s := scene.New(800)
	h := New(WithLimit(3))
	o := s.Add("a.svg")
	for i := range 5 {
		o.Left = float64(i)
		h.Push(s.Snapshot())
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Index())

	h.Undo(s)
	h.Undo(s)
	got, _ := s.Get(o.Name)
	assert.Equal(t, 2.0, got.Left)
}

func TestReconcile_OntoEmptyScene(t *testing.T) {
	t.Parallel()

	for n := range 5 {
		t.Run(fmt.Sprintf("%d objects", n), func(t *testing.T) {
			t.Parallel()
			source := scene.New(800)
			for i := range n {
				o := source.Add(fmt.Sprintf("figure-%d.svg", i))
				o.Left = float64(37 * i)
				o.Top = float64(11*i + 5)
				o.Angle = float64(-45 + 30*i)
				o.Scale = 0.25 * float64(i+1)
			}
			if n > 2 {
				g := source.Select("o0", "o2")
				g.Rotate(33)
				g.ScaleBy(1.5)
				g.Translate(12, -7)
			}
			want := source.Snapshot()

			empty := scene.New(800)
			touched := Reconcile(empty, want)
			assert.Len(t, touched, n)
			assert.Equal(t, want, empty.Snapshot())
		})
	}
}

func TestReconcile_SelectsTouchedObjects(t *testing.T) {
	t.Parallel()
	s := scene.New(800)
	a, _ := s.AddNamed("o0", "a.svg", scene.Transform{Left: 10, Top: 10, Scale: 1})
	s.AddNamed("o1", "b.svg", scene.Transform{Left: 50, Top: 10, Scale: 1})
	s.AddNamed("o2", "c.svg", scene.Transform{Left: 90, Top: 10, Scale: 1})
	target := s.Snapshot()

	a.Left = 400
	s.Remove("o1")
	s.AddNamed("o3", "d.svg", scene.Transform{Scale: 1})

	touched := Reconcile(s, target)
	assert.ElementsMatch(t, []string{"o0", "o1"}, touched)
	require.NotNil(t, s.Selection())
	assert.ElementsMatch(t, []string{"o0", "o1"}, s.Selection().Members())
	assert.Equal(t, target, s.Snapshot())
	_, exists := s.Get("o3")
	assert.False(t, exists)
}

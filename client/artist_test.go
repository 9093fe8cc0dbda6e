package client

import (
	"context"
	"slices"
	"testing"
	"time"

	"imagine/canvassync"
	"imagine/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func startArtist(t *testing.T, sender canvassync.Sender) (*ArtistView, chan time.Time, context.CancelFunc) {
	t.Helper()
	ticks := make(chan time.Time)
	tc := &MockTickerCreator{}
	tc.On("Create", mock.Anything).Return(ticks)

	v := NewArtistView(800, sender, tc)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		v.Run(ctx)
		close(stopped)
	}()
	stop := func() {
		cancel()
		<-stopped
	}
	t.Cleanup(stop)
	return v, ticks, stop
}

func TestArtistView_AddFigure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sender := &MockSender{}
	v, ticks, _ := startArtist(t, sender)

	_, err := v.AddFigure(ctx, "cat.svg")
	require.ErrorIs(t, err, ErrUnknownImage)

	name, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	assert.Equal(t, "o0", name)

	expected := canvassync.Marshal(canvassync.ChangeSet{
		Added: []canvassync.ImageInfo{{Name: "o0", Source: "key.svg", Left: 0.5, Top: 0.5, Scale: 125}},
	})
	sender.On("SendCanvasEvent", mock.Anything, expected, false).Return(nil).Once()

	ticks <- time.Now()
	_, err = v.Snapshot(ctx)
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestArtistView_UndoRedo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := startArtist(t, &MockSender{})

	name, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	require.NoError(t, v.Move(ctx, name, 80, -20))
	require.NoError(t, v.Rotate(ctx, name, 30))
	require.NoError(t, v.Scale(ctx, name, 2))

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, scene.SavedObject{Left: 480, Top: 280, Angle: 30, Scale: 2, Source: "key.svg"}, snap[name])

	touched, err := v.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, touched)
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, scene.SavedObject{Left: 480, Top: 280, Angle: 30, Scale: 1, Source: "key.svg"}, snap[name])

	for range 3 {
		_, err = v.Undo(ctx)
		require.NoError(t, err)
	}
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)

	// Nothing left to undo.
	touched, err = v.Undo(ctx)
	require.NoError(t, err)
	assert.Empty(t, touched)

	_, err = v.Redo(ctx)
	require.NoError(t, err)
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, scene.SavedObject{Left: 400, Top: 300, Scale: 1, Source: "key.svg"}, snap[name])
}

func TestArtistView_EditsAfterUndoDropRedo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := startArtist(t, &MockSender{})

	first, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	require.NoError(t, v.Move(ctx, first, 10, 0))
	_, err = v.Undo(ctx)
	require.NoError(t, err)

	second, err := v.AddFigure(ctx, "camera.svg")
	require.NoError(t, err)

	touched, err := v.Redo(ctx)
	require.NoError(t, err)
	assert.Empty(t, touched)

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, snap.Names())
	assert.Equal(t, 400.0, snap[first].Left)
}

func TestArtistView_RemoveAndModify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := startArtist(t, &MockSender{})

	a, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	b, err := v.AddFigure(ctx, "padlock.svg")
	require.NoError(t, err)

	require.NoError(t, v.Modify(ctx, func(s *scene.Scene) {
		s.Select(a, b).Translate(0, 50)
	}))
	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 350.0, snap[a].Top)
	assert.Equal(t, 350.0, snap[b].Top)

	require.NoError(t, v.Remove(ctx, a, "o99"))
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, snap.Names())

	_, err = v.Undo(ctx)
	require.NoError(t, err)
	snap, err = v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, snap.Names())

	err = v.Move(ctx, "o99", 1, 1)
	assert.ErrorIs(t, err, scene.ErrObjectNotFound)
}

func TestArtistView_UndoReachesPeers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sender := &MockSender{}
	v, ticks, _ := startArtist(t, sender)

	sender.On("SendCanvasEvent", mock.Anything, mock.Anything, false).Return(nil).Once()
	name, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	ticks <- time.Now()

	_, err = v.Undo(ctx)
	require.NoError(t, err)

	removed := mock.MatchedBy(func(data []byte) bool {
		cs, err := canvassync.Unmarshal(data)
		return err == nil && slices.Equal(cs.Removed, []string{name})
	})
	sender.On("SendCanvasEvent", mock.Anything, removed, false).Return(nil).Once()
	ticks <- time.Now()

	_, err = v.Snapshot(ctx)
	require.NoError(t, err)
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "SendCanvasEvent", 2)
}

func TestArtistView_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v, _, _ := startArtist(t, &MockSender{})

	_, err := v.AddFigure(ctx, "key.svg")
	require.NoError(t, err)
	require.NoError(t, v.Clear(ctx))

	snap, err := v.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)

	touched, err := v.Undo(ctx)
	require.NoError(t, err)
	assert.Empty(t, touched)
}

func TestArtistView_Stopped(t *testing.T) {
	t.Parallel()
	v, _, stop := startArtist(t, &MockSender{})
	stop()

	_, err := v.AddFigure(context.Background(), "key.svg")
	assert.ErrorIs(t, err, canvassync.ErrStopped)
}

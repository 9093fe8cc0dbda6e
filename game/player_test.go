package game

import (
	"errors"
	"io"
	"testing"

	"imagine/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayer_ReadPump(t *testing.T) {
	t.Parallel()

	socket := &MockWebsocketConnection{}
	p := NewPlayer("reader", socket)
	r := newRoom("room", 4, &MockSubjectSource{}, &MockLobby{})

	keyframe := protocol.MarshalClient(protocol.CanvasEvent{Data: []byte{7}, Keyframe: true})
	socket.On("Read").Return(canvasPacket(1), nil).Once()
	socket.On("Read").Return([]byte{0xff}, nil).Once()
	socket.On("Read").Return(protocol.MarshalClient(protocol.Ready{}), nil).Once()
	socket.On("Read").Return(keyframe, nil).Once()
	socket.On("Read").Return(nil, io.EOF).Once()

	p.ReadPump(r)

	require.Len(t, r.inbox, 3)
	e := <-r.inbox
	assert.Equal(t, canvasPacket(1), e.raw)
	assert.False(t, e.keyframe)
	assert.Same(t, p, e.from)

	e = <-r.inbox
	assert.Equal(t, protocol.Ready{}, e.msg)
	assert.Nil(t, e.raw)

	e = <-r.inbox
	assert.Equal(t, keyframe, e.raw)
	assert.True(t, e.keyframe)

	assert.Same(t, p, <-r.leaveRequests)
	socket.AssertExpectations(t)
}

func TestPlayer_ReadPumpRateLimit(t *testing.T) {
	t.Parallel()

	socket := &MockWebsocketConnection{}
	p := NewPlayer("spammer", socket)
	r := newRoom("room", 4, &MockSubjectSource{}, &MockLobby{})

	socket.On("Read").Return(protocol.MarshalClient(protocol.Ready{}), nil).Times(100)
	socket.On("Read").Return(nil, io.EOF).Once()

	p.ReadPump(r)

	assert.GreaterOrEqual(t, len(r.inbox), packetsBurst)
	assert.Less(t, len(r.inbox), 100)
}

func TestPlayer_WritePump(t *testing.T) {
	t.Parallel()

	t.Run("drains until the inbox closes", func(t *testing.T) {
		socket := &MockWebsocketConnection{}
		p := NewPlayer("writer", socket)

		socket.On("Write", []byte{1}).Return(nil).Once()
		socket.On("Write", []byte{2}).Return(nil).Once()
		socket.On("Close", "").Return().Once()

		p.Send([]byte{1})
		p.Send([]byte{2})
		close(p.inbox)
		p.WritePump()

		socket.AssertExpectations(t)
	})

	t.Run("writes the welcome packets first", func(t *testing.T) {
		socket := &MockWebsocketConnection{}
		p := NewPlayer("writer", socket)

		var written [][]byte
		socket.On("Write", mock.Anything).Run(func(args mock.Arguments) {
			written = append(written, args.Get(0).([]byte))
		}).Return(nil)
		socket.On("Close", "").Return().Once()

		p.welcome = make([][]byte, 0, playerInboxSize*2)
		for i := range playerInboxSize * 2 {
			p.welcome = append(p.welcome, []byte{byte(i), byte(i >> 8)})
		}
		expected := append([][]byte{}, p.welcome...)
		expected = append(expected, []byte{0xff, 0xff})

		p.Send([]byte{0xff, 0xff})
		close(p.inbox)
		p.WritePump()

		assert.Equal(t, expected, written)
		assert.Nil(t, p.welcome)
		socket.AssertExpectations(t)
	})

	t.Run("pings", func(t *testing.T) {
		socket := &MockWebsocketConnection{}
		p := NewPlayer("writer", socket)

		socket.On("Ping").Return(errors.New("gone")).Once()
		socket.On("Close", "").Return().Once()

		p.Ping()
		p.Ping()
		p.WritePump()

		socket.AssertExpectations(t)
	})

	t.Run("stops on write error", func(t *testing.T) {
		socket := &MockWebsocketConnection{}
		p := NewPlayer("writer", socket)

		socket.On("Write", mock.Anything).Return(errors.New("broken pipe")).Once()
		socket.On("Close", "").Return().Once()

		p.Send([]byte{1})
		p.Send([]byte{2})
		p.WritePump()

		socket.AssertExpectations(t)
		assert.Len(t, p.inbox, 1)
	})
}

func TestPlayer_SendDropsWhenFull(t *testing.T) {
	t.Parallel()
	p := newTestPlayer("slow")

	for range playerInboxSize + 10 {
		p.Send([]byte{1})
	}
	assert.Len(t, p.inbox, playerInboxSize)
}

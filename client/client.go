// Package client is a Go game client. It speaks the room protocol over a
// websocket and hosts the two canvas roles: ArtistView authors a scene and
// streams it, GuesserView replays what the artist streams.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"imagine/domain"
	"imagine/protocol"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait    = 10 * time.Second
	eventsBuffer = 256
)

// Client is one websocket connection to the game server. Replies to Join and
// Guess are matched by ack id; every other server message is published on
// Events, which the caller must drain.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	nextAck atomic.Uint32
	mu      sync.Mutex
	pending map[uint32]chan protocol.ServerMessage

	events    chan protocol.ServerMessage
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	err       error

	log zerolog.Logger
}

// Dial connects to the websocket endpoint at url. The origin is sent as the
// Origin header; servers refuse upgrades from unknown origins.
func Dial(ctx context.Context, url, origin string) (*Client, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newClient(conn), nil
}

func newClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:    conn,
		pending: map[uint32]chan protocol.ServerMessage{},
		events:  make(chan protocol.ServerMessage, eventsBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "client").Str("remote", conn.RemoteAddr().String()).Logger(),
	}
	go c.readLoop()
	return c
}

// Events delivers server messages that are not replies to a call.
func (c *Client) Events() <-chan protocol.ServerMessage {
	return c.events
}

// Done is closed once the connection is gone. Err then reports why.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
				c.err = ErrClosed
			default:
				c.err = err
			}
			return
		}

		m, err := protocol.UnmarshalServer(data)
		if err != nil {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("Dropped server packet")
			continue
		}
		if c.resolve(m) {
			continue
		}
		select {
		case c.events <- m:
		case <-c.closing:
			c.err = ErrClosed
			return
		}
	}
}

func ackOf(m protocol.ServerMessage) (uint32, bool) {
	switch m := m.(type) {
	case protocol.JoinAck:
		return m.Ack, true
	case protocol.JoinError:
		return m.Ack, true
	case protocol.GuessResult:
		return m.Ack, true
	}
	return 0, false
}

func (c *Client) resolve(m protocol.ServerMessage) bool {
	ack, ok := ackOf(m)
	if !ok {
		return false
	}
	c.mu.Lock()
	reply, ok := c.pending[ack]
	delete(c.pending, ack)
	c.mu.Unlock()
	if !ok {
		c.log.Debug().Uint32("ack", ack).Msg("Reply without caller")
		return false
	}
	reply <- m
	return true
}

func (c *Client) send(m protocol.ClientMessage) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, protocol.MarshalClient(m))
}

// call sends the message built for a fresh ack id and waits for its reply.
func (c *Client) call(ctx context.Context, build func(ack uint32) protocol.ClientMessage) (protocol.ServerMessage, error) {
	ack := c.nextAck.Add(1)
	reply := make(chan protocol.ServerMessage, 1)

	c.mu.Lock()
	c.pending[ack] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, ack)
		c.mu.Unlock()
	}()

	if err := c.send(build(ack)); err != nil {
		return nil, err
	}

	select {
	case m := <-reply:
		return m, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Join enters roomName, creating the room when nobody is in it yet.
func (c *Client) Join(ctx context.Context, roomName, playerName string) (protocol.JoinAck, error) {
	reply, err := c.call(ctx, func(ack uint32) protocol.ClientMessage {
		return protocol.JoinLobby{Ack: ack, RoomName: roomName, PlayerName: playerName}
	})
	if err != nil {
		return protocol.JoinAck{}, err
	}
	switch m := reply.(type) {
	case protocol.JoinAck:
		return m, nil
	case protocol.JoinError:
		return protocol.JoinAck{}, fmt.Errorf("%w: %s", ErrJoinRefused, m.Reason)
	}
	return protocol.JoinAck{}, fmt.Errorf("%w: %T", ErrUnexpected, reply)
}

// Ready asks for subject choices when sent by the artist, or for the current
// placeholder when sent by a guesser.
func (c *Client) Ready() error {
	return c.send(protocol.Ready{})
}

func (c *Client) ChooseSubject(s domain.Subject) error {
	return c.send(protocol.SubjectChosen{Subject: s})
}

// Guess reports whether text was the subject. Guesses the room refuses are
// answered with false as well.
func (c *Client) Guess(ctx context.Context, text string) (bool, error) {
	reply, err := c.call(ctx, func(ack uint32) protocol.ClientMessage {
		return protocol.Guess{Ack: ack, Text: text}
	})
	if err != nil {
		return false, err
	}
	result, ok := reply.(protocol.GuessResult)
	if !ok {
		return false, fmt.Errorf("%w: %T", ErrUnexpected, reply)
	}
	return result.Correct, nil
}

// SendCanvasEvent ships an encoded change set to the room.
func (c *Client) SendCanvasEvent(ctx context.Context, data []byte, keyframe bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.send(protocol.CanvasEvent{Data: data, Keyframe: keyframe})
}

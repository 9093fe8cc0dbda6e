package game

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imagine/catalog"
	"imagine/domain"
	"imagine/internal/ticker"
	"imagine/protocol"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	lobby   *Lobby
	handler *GameHandler
	http    *httptest.Server
}

func newTestServer(t *testing.T, subjects []domain.Subject, handshake time.Duration, opts ...LobbyOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lobby := NewLobby(catalog.NewMemory(subjects), ticker.Real{}, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go lobby.LobbyActor(ctx, started)
	<-started

	h := NewGameHandler(lobby, WithHandshakeTimeout(handshake))
	r := gin.New()
	r.GET("/ws", h.WebsocketHandler)
	r.GET("/figures", h.FiguresHandler)
	r.GET("/rooms", h.RoomsHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-lobby.Done()
	})
	return &testServer{lobby: lobby, handler: h, http: srv}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *testServer) dial(t *testing.T) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(m protocol.ClientMessage) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, protocol.MarshalClient(m)))
}

func (c *testClient) sendRaw(data []byte) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, data))
}

func (c *testClient) receive() protocol.ServerMessage {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	m, err := protocol.UnmarshalServer(data)
	require.NoError(c.t, err)
	return m
}

func (c *testClient) closeReason() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(c.t, err, &closeErr)
		return closeErr.Text
	}
}

func TestWebsocket_EndToEnd(t *testing.T) {
	t.Parallel()
	shrek := domain.Subject{Text: "Shrek", Topic: "Film"}
	subjects := []domain.Subject{shrek, {Text: "Titanic", Topic: "Film"}, {Text: "Hulk", Topic: "Fictional Character"}}
	srv := newTestServer(t, subjects, time.Second, WithMaxPlayers(2))

	artist := srv.dial(t)
	artist.send(protocol.JoinLobby{Ack: 1, RoomName: "X", PlayerName: "picasso"})
	artistAck, ok := artist.receive().(protocol.JoinAck)
	require.True(t, ok)
	assert.Equal(t, domain.RoleArtist, artistAck.Player.Role)
	assert.Equal(t, "picasso", artistAck.Player.Name)
	assert.Empty(t, artistAck.Others)
	artistView := artistAck.Player

	guesser := srv.dial(t)
	guesser.send(protocol.JoinLobby{Ack: 1, RoomName: "X", PlayerName: "sherlock"})
	guesserAck, ok := guesser.receive().(protocol.JoinAck)
	require.True(t, ok)
	assert.Equal(t, domain.RoleGuesser, guesserAck.Player.Role)
	assert.Equal(t, []domain.ClientPlayer{artistView}, guesserAck.Others)
	guesserView := guesserAck.Player

	assert.Equal(t, protocol.NewPlayer{Player: guesserView}, artist.receive())

	t.Run("room full", func(t *testing.T) {
		late := srv.dial(t)
		late.send(protocol.JoinLobby{Ack: 4, RoomName: "X", PlayerName: "watson"})
		assert.Equal(t, protocol.JoinError{Ack: 4, Reason: "room-full"}, late.receive())
		assert.Equal(t, "room-full", late.closeReason())
	})

	artist.send(protocol.Ready{})
	choices, ok := artist.receive().(protocol.SubjectChoices)
	require.True(t, ok)
	assert.ElementsMatch(t, subjects, choices.Subjects)

	artist.send(protocol.SubjectChosen{Subject: shrek})
	assert.Equal(t, protocol.NewSubject{Placeholder: domain.Placeholder{Letters: []int{5}, Topic: "Film"}}, guesser.receive())

	canvas := protocol.MarshalClient(protocol.CanvasEvent{Data: []byte{10, 2, 'o', '1'}})
	artist.sendRaw(canvas)
	assert.Equal(t, protocol.CanvasEvent{Data: []byte{10, 2, 'o', '1'}}, guesser.receive())

	guesser.send(protocol.Guess{Ack: 7, Text: "Shrek"})
	winner := protocol.WinnerOfRound{Guid: guesserView.Guid, Score: 1, ArtistGuid: artistView.Guid, ArtistScore: 1}
	assert.Equal(t, winner, guesser.receive())
	assert.Equal(t, protocol.NewArtist{Guid: guesserView.Guid}, guesser.receive())
	assert.Equal(t, protocol.GuessResult{Ack: 7, Correct: true}, guesser.receive())

	assert.Equal(t, protocol.PlayerGuess{Guid: guesserView.Guid, Guess: "Shrek"}, artist.receive())
	assert.Equal(t, winner, artist.receive())
	assert.Equal(t, protocol.NewArtist{Guid: guesserView.Guid}, artist.receive())

	// the new artist is offered everything but the played subject
	guesser.send(protocol.Ready{})
	next, ok := guesser.receive().(protocol.SubjectChoices)
	require.True(t, ok)
	assert.ElementsMatch(t, subjects[1:], next.Subjects)

	t.Run("artist disconnects", func(t *testing.T) {
		guesser.conn.Close()
		assert.Equal(t, protocol.PlayerDisconnected{Guid: guesserView.Guid}, artist.receive())
		assert.Equal(t, protocol.NewArtist{Guid: artistView.Guid}, artist.receive())
	})
}

func TestWebsocket_Handshake(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, catalog.DefaultSubjects(), 100*time.Millisecond)

	testCases := []struct {
		desc   string
		first  []byte
		reason string
		reply  protocol.ServerMessage
	}{
		{desc: "silent client", reason: "handshake-timeout"},
		{desc: "guess before join", first: protocol.MarshalClient(protocol.Guess{Text: "x"}), reason: "expected-join-lobby"},
		{desc: "canvas before join", first: protocol.MarshalClient(protocol.CanvasEvent{Data: []byte{1}}), reason: "expected-join-lobby"},
		{
			desc:   "blank room name",
			first:  protocol.MarshalClient(protocol.JoinLobby{Ack: 2, RoomName: "  ", PlayerName: "x"}),
			reason: "invalid-room-name",
			reply:  protocol.JoinError{Ack: 2, Reason: "invalid-room-name"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c := srv.dial(t)
			if tc.first != nil {
				c.sendRaw(tc.first)
			}
			if tc.reply != nil {
				assert.Equal(t, tc.reply, c.receive())
			}
			assert.Equal(t, tc.reason, c.closeReason())
		})
	}
}

func TestFiguresHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, catalog.DefaultSubjects(), time.Second)

	testCases := []struct {
		query    string
		expected []string
	}{
		{"", nil},
		{"?q=lock", []string{"key.svg", "padlock.svg"}},
		{"?q=nothing", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			t.Parallel()
			res := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/figures"+tc.query, nil)
			r := gin.New()
			r.GET("/figures", srv.handler.FiguresHandler)
			r.ServeHTTP(res, req)

			require.Equal(t, http.StatusOK, res.Code)
			var figures []domain.Figure
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &figures))

			if tc.expected == nil {
				assert.Equal(t, catalog.Figures(), figures)
				return
			}
			srcs := []string{}
			for _, f := range figures {
				srcs = append(srcs, f.Source)
			}
			assert.Equal(t, tc.expected, srcs)
		})
	}
}

func TestRoomsHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, catalog.DefaultSubjects(), time.Second)

	get := func() []domain.RoomDescription {
		res, err := http.Get(srv.http.URL + "/rooms")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		var descs []domain.RoomDescription
		require.NoError(t, json.NewDecoder(res.Body).Decode(&descs))
		return descs
	}

	assert.Empty(t, get())

	c := srv.dial(t)
	c.send(protocol.JoinLobby{Ack: 1, RoomName: "attic"})
	ack, ok := c.receive().(protocol.JoinAck)
	require.True(t, ok)
	assert.Equal(t, "Player 1", ack.Player.Name)

	assert.Eventually(t, func() bool {
		descs := get()
		return len(descs) == 1 && descs[0] == domain.RoomDescription{Name: "attic", PlayersCount: 1, MaxPlayers: DefaultMaxPlayers}
	}, 2*time.Second, 10*time.Millisecond)
}

package game

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type WebsocketConnection struct {
	socket *websocket.Conn
}

func (wc *WebsocketConnection) Write(data []byte) error {
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.BinaryMessage, data)
}

func (wc *WebsocketConnection) Ping() error {
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *WebsocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *WebsocketConnection) SetReadDeadline(t time.Time) error {
	return wc.socket.SetReadDeadline(t)
}

func (wc *WebsocketConnection) Close(errCode string) {
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode))
	wc.socket.Close()
}

// NewWebsocketConnection wraps conn. Every pong pushes the read deadline
// pongWait further.
func NewWebsocketConnection(conn *websocket.Conn, pongWait time.Duration) *WebsocketConnection {
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &WebsocketConnection{conn}
}

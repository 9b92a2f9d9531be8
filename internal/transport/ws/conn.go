/*
Package ws adapts an upgraded gorilla WebSocket connection to the session's
transport boundary: server frames go out as single binary messages, client
frames come in from single binary messages. Non-binary messages are rejected
before they ever reach the frame codec.
*/
package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"minichat/internal/frame"
)

const (
	// timeout duration for writing a frame to the peer.
	writeWait = 10 * time.Second

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192
)

// Conn wraps an accepted *websocket.Conn as a frame transport. It supports the
// session's concurrency shape: one goroutine reading, one goroutine writing.
type Conn struct {
	ws *websocket.Conn
}

// NewConn wraps an upgraded connection and applies the inbound size limit.
func NewConn(wsConn *websocket.Conn) *Conn {
	wsConn.SetReadLimit(maxMessageSize)
	return &Conn{ws: wsConn}
}

// Send encodes a server frame and writes it as one binary message. A write
// failure is terminal for the connection.
func (c *Conn) Send(f frame.Server) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.BinaryMessage, frame.EncodeServer(f))
}

// Next reads the next inbound message. A non-binary message yields
// frame.ErrNotBinary and a malformed binary payload frame.ErrInvalidFrame;
// both leave the connection readable. Any other error means the inbound
// sequence has ended.
func (c *Conn) Next() (frame.Client, error) {
	msgType, data, err := c.ws.ReadMessage()
	if err != nil {
		return frame.Client{}, err
	}
	if msgType != websocket.BinaryMessage {
		return frame.Client{}, frame.ErrNotBinary
	}
	return frame.DecodeClient(data)
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	return c.ws.Close()
}

package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/errorsx"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
)

const writeTimeout = 10 * time.Second

// wsConn adapts one upgraded websocket connection to the orchestrator's
// duplex channel contract. Reads happen from the single orchestrator
// goroutine; writes are serialized with a mutex because the background
// speech task sends concurrently with the turn loop.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, errorsx.Wrap(err, errorsx.ReasonTransportClose)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (c *wsConn) Send(env session.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func (c *wsConn) SendAudio(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}

var _ session.Conn = (*wsConn)(nil)

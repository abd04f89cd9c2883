package ws

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrConnectionClosed = stderrors.New("connection closed")

// Connection is one websocket client. Every write goes through the send
// queue drained by writePump, the only goroutine writing on the socket.
type Connection struct {
	id        contract.ConnectionID
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

func NewConnection(conn *websocket.Conn, bufferSize int, log *slog.Logger) *Connection {
	id := contract.ConnectionID(uuid.NewString())
	return &Connection{
		id:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
		log:  log.With("connection_id", id),
	}
}

func (c *Connection) ID() contract.ConnectionID {
	return c.id
}

// Consume queues the event for the client, blocking until there is room,
// the connection closes or ctx is done.
func (c *Connection) Consume(ctx context.Context, e event.DomainEvent) error {
	payload, err := encodeEvent(e)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, payload)
}

func (c *Connection) enqueue(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is idempotent. The send queue is never closed so late producers
// get ErrConnectionClosed instead of a panic.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		// WriteControl may run concurrently with writePump
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

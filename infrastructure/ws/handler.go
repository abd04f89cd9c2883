// Package ws exposes chat sessions over websocket connections carrying JSON frames.
package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Handler struct {
	sessions   services.ISessionService
	upgrader   websocket.Upgrader
	bufferSize int
	log        *slog.Logger

	mu      sync.Mutex
	live    map[contract.ConnectionID]*Connection
	pumps   sync.WaitGroup
	closing bool
}

// NewHandler accepts any origin when allowedOrigins is empty.
func NewHandler(log *slog.Logger, sessions services.ISessionService, bufferSize int, allowedOrigins []string) *Handler {
	return &Handler{
		sessions:   sessions,
		bufferSize: bufferSize,
		log:        log,
		live:       make(map[contract.ConnectionID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client
		h.log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn := NewConnection(socket, h.bufferSize, h.log)
	if !h.track(conn) {
		_ = conn.Close()
		return
	}
	defer h.untrack(conn)
	h.log.Debug("Connection opened", "connection_id", conn.ID(), "remote", r.RemoteAddr)
	go conn.writePump()
	h.readPump(r.Context(), conn)
}

// CloseAll closes every live connection and waits until their sessions are
// released or ctx is done. Connections upgraded afterwards are closed at once.
func (h *Handler) CloseAll(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	live := make([]*Connection, 0, len(h.live))
	for _, conn := range h.live {
		live = append(live, conn)
	}
	h.mu.Unlock()

	h.log.Info("Closing live connections", "count", len(live))
	for _, conn := range live {
		_ = conn.Close()
	}

	released := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(released)
	}()
	select {
	case <-released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Live reports how many connections are currently open.
func (h *Handler) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

func (h *Handler) track(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.live[conn.ID()] = conn
	h.pumps.Add(1)
	return true
}

func (h *Handler) untrack(conn *Connection) {
	h.mu.Lock()
	delete(h.live, conn.ID())
	h.mu.Unlock()
	h.pumps.Done()
}

// readPump owns the socket reads. Leaving it releases the session.
func (h *Handler) readPump(ctx context.Context, conn *Connection) {
	defer func() {
		h.sessions.Disconnect(conn)
		_ = conn.Close()
		h.log.Debug("Connection closed", "connection_id", conn.ID())
	}()

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Unexpected close", "connection_id", conn.ID(), "error", err)
			}
			return
		}
		_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.dispatch(ctx, conn, data)
	}
}

// dispatch never lets a frame bring the connection down. Malformed frames
// are dropped, rejected ones are answered with an error frame.
func (h *Handler) dispatch(ctx context.Context, conn *Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Frame handler panicked", "connection_id", conn.ID(), "panic", r)
			h.reject(ctx, conn, fmt.Errorf("panic: %v", r))
		}
	}()

	frame, err := decodeFrame(data)
	if err != nil {
		h.log.Debug("Frame dropped", "connection_id", conn.ID(), "error", err)
		return
	}
	h.log.Debug("Frame received", "connection_id", conn.ID(), "type", frame.Type, "chat_id", frame.ChatID)

	switch frame.Type {
	case frameAuth:
		err = h.sessions.Authenticate(conn, frame.UserID, frame.Token)
	case frameJoinChat:
		err = h.sessions.JoinChat(conn, frame.ChatID)
	case frameSendMessage:
		_, err = h.sessions.SendMessage(ctx, conn, domain.CreateMessageCommand{
			ChatID:    frame.ChatID,
			Content:   frame.Content,
			Type:      frame.MessageType,
			Metadata:  frame.Metadata,
			ReplyToID: frame.ReplyToID,
		})
	case frameTyping:
		err = h.sessions.Typing(conn, frame.ChatID)
	}
	if err != nil {
		h.reject(ctx, conn, err)
	}
}

func (h *Handler) reject(ctx context.Context, conn *Connection, err error) {
	level := slog.LevelDebug
	if errors.Code(err) == errors.CodeInternal {
		level = slog.LevelError
	}
	h.log.Log(ctx, level, "Frame rejected", "connection_id", conn.ID(), "error", err)

	sendCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if sendErr := conn.enqueue(sendCtx, encodeError(err)); sendErr != nil {
		h.log.Debug("Error frame not sent", "connection_id", conn.ID(), "error", sendErr)
	}
}

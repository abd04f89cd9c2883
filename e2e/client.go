// Package e2e drives a relay from the outside, over HTTP and websocket.
package e2e

import (
	"bytes"
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// APIError is a non 2xx answer of the relay.
type APIError struct {
	Status           int
	Code             string `json:"code"`
	Message          string `json:"message"`
	RequiresPassword bool   `json:"requiresPassword"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	trace   func(format string, args ...any)
}

// NewClient sends every exchange to trace when it is not nil.
func NewClient(baseURL string, trace func(format string, args ...any)) *Client {
	if trace == nil {
		trace = func(string, ...any) {}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		trace:   trace,
	}
}

func (c *Client) Verify(phone, code, password string) (domain.VerifyResult, error) {
	var result domain.VerifyResult
	err := c.do(http.MethodPost, "/api/auth/verify", "", domain.VerifyCommand{Phone: phone, Code: code, Password: password}, &result)
	return result, err
}

func (c *Client) PrivateChat(token string, peer domain.UserID) (domain.Chat, error) {
	var chat domain.Chat
	err := c.do(http.MethodPost, "/api/chats/private", token, map[string]any{"peerId": peer}, &chat)
	return chat, err
}

func (c *Client) CreateGroup(token, name string) (domain.Chat, error) {
	var chat domain.Chat
	err := c.do(http.MethodPost, "/api/chats", token, map[string]any{"type": domain.ChatGroup, "name": name}, &chat)
	return chat, err
}

func (c *Client) Join(token, inviteLink string) (domain.Chat, error) {
	var chat domain.Chat
	err := c.do(http.MethodPost, "/api/chats/join", token, map[string]any{"inviteLink": inviteLink}, &chat)
	return chat, err
}

func (c *Client) Chats(token string) ([]domain.ChatWithMembers, error) {
	var chats []domain.ChatWithMembers
	err := c.do(http.MethodGet, "/api/chats", token, nil, &chats)
	return chats, err
}

func (c *Client) Messages(token string, chatID domain.ChatID, limit int) ([]domain.MessageWithSender, error) {
	var messages []domain.MessageWithSender
	err := c.do(http.MethodGet, fmt.Sprintf("/api/chats/%d/messages?limit=%d", chatID, limit), token, nil, &messages)
	return messages, err
}

func (c *Client) User(token string, id domain.UserID) (domain.User, error) {
	var user domain.User
	err := c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", id), token, nil, &user)
	return user, err
}

func (c *Client) Bots(token string, id domain.UserID) ([]domain.Bot, error) {
	var bots []domain.Bot
	err := c.do(http.MethodGet, fmt.Sprintf("/api/users/%d/bots", id), token, nil, &bots)
	return bots, err
}

func (c *Client) do(method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		c.trace("%s %s %s", method, path, payload)
		body = bytes.NewReader(payload)
	}
	request, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	c.trace("%s %s -> %d %s", method, path, response.StatusCode, payload)
	if response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: response.StatusCode}
		_ = json.Unmarshal(payload, apiErr)
		return apiErr
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

// Frame is any frame pushed by the relay. Message is the hydrated message of
// new_message frames and the text of error frames.
type Frame struct {
	Type    string          `json:"type"`
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
	ChatID  domain.ChatID   `json:"chatId"`
	UserID  domain.UserID   `json:"userId"`
}

func (f Frame) Posted() (domain.MessageWithSender, error) {
	var message domain.MessageWithSender
	err := json.Unmarshal(f.Message, &message)
	return message, err
}

// Session is an authenticated websocket connection.
type Session struct {
	conn  *websocket.Conn
	trace func(format string, args ...any)
}

// Connect opens the websocket and sends the auth frame. The relay does not
// acknowledge it, a rejected auth comes back as an error frame.
func (c *Client) Connect(ctx context.Context, userID domain.UserID, token string) (*Session, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	session := &Session{conn: conn, trace: c.trace}
	if err = session.send(map[string]any{"type": "auth", "userId": userID, "token": token}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return session, nil
}

func (s *Session) JoinChat(chatID domain.ChatID) error {
	return s.send(map[string]any{"type": "join_chat", "chatId": chatID})
}

func (s *Session) Send(chatID domain.ChatID, content string) error {
	return s.send(map[string]any{"type": "send_message", "chatId": chatID, "content": content})
}

func (s *Session) Typing(chatID domain.ChatID) error {
	return s.send(map[string]any{"type": "typing", "chatId": chatID})
}

// Next waits for the next frame of the given type, other frames are skipped.
func (s *Session) Next(frameType string, timeout time.Duration) (Frame, error) {
	deadline := time.Now().Add(timeout)
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return Frame{}, err
	}
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		s.trace("<- %s", payload)
		var frame Frame
		if err = json.Unmarshal(payload, &frame); err != nil {
			return Frame{}, err
		}
		if frame.Type == frameType {
			return frame, nil
		}
	}
}

// NextMessage waits for a new_message frame posted by sender.
func (s *Session) NextMessage(sender domain.UserID, timeout time.Duration) (domain.MessageWithSender, error) {
	deadline := time.Now().Add(timeout)
	for {
		frame, err := s.Next("new_message", time.Until(deadline))
		if err != nil {
			return domain.MessageWithSender{}, err
		}
		message, err := frame.Posted()
		if err != nil {
			return domain.MessageWithSender{}, err
		}
		if message.SenderID == sender {
			return message, nil
		}
	}
}

func (s *Session) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *Session) send(frame map[string]any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.trace("-> %s", payload)
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

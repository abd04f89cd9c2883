package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sync"
)

type Set map[contract.ConnectionID]struct{}

type binding struct {
	userID domain.UserID
	chatID domain.ChatID
	conn   contract.Connection
}

// Registry tracks live connections, the user each one is bound to and the
// chat it currently follows. A user has at most one live connection.
type Registry struct {
	mu              sync.RWMutex
	connections     map[contract.ConnectionID]*binding      // map connection -> binding
	byUser          map[domain.UserID]contract.ConnectionID // map user -> current connection
	chatSubscribers map[domain.ChatID]Set                   // map chat -> joined connections
}

func NewRegistry() *Registry {
	return &Registry{
		connections:     make(map[contract.ConnectionID]*binding),
		byUser:          make(map[domain.UserID]contract.ConnectionID),
		chatSubscribers: make(map[domain.ChatID]Set),
	}
}

// Register binds conn to userID. When the user already had another live
// connection, that one is dropped from the registry and returned so the
// caller can close it. Re-authenticating a connection as another user
// releases its previous binding first.
func (r *Registry) Register(userID domain.UserID, conn contract.Connection) contract.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()
	if previous, ok := r.connections[connID]; ok && previous.userID != userID {
		r.release(connID)
	}

	var evicted contract.Connection
	if currentID, ok := r.byUser[userID]; ok && currentID != connID {
		if current, exists := r.connections[currentID]; exists {
			evicted = current.conn
		}
		r.release(currentID)
	}

	if _, ok := r.connections[connID]; !ok {
		r.connections[connID] = &binding{userID: userID, conn: conn}
	}
	r.byUser[userID] = connID
	return evicted
}

// Unregister removes the connection. wasCurrent is false when the connection
// had already been replaced by a newer one, presence must then stay as is.
func (r *Registry) Unregister(connID contract.ConnectionID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.connections[connID]
	if !ok {
		return 0, false
	}
	userID := b.userID
	wasCurrent := r.byUser[userID] == connID
	r.release(connID)
	return userID, wasCurrent
}

// Join moves the connection to chatID. A connection follows one chat at a time.
func (r *Registry) Join(connID contract.ConnectionID, chatID domain.ChatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.connections[connID]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotAuthenticated, connID)
	}
	r.leaveChat(connID, b.chatID)
	b.chatID = chatID
	if _, ok := r.chatSubscribers[chatID]; !ok {
		r.chatSubscribers[chatID] = make(Set)
	}
	r.chatSubscribers[chatID][connID] = struct{}{}
	return nil
}

func (r *Registry) Lookup(connID contract.ConnectionID) (domain.UserID, domain.ChatID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.connections[connID]
	if !ok {
		return 0, 0, false
	}
	return b.userID, b.chatID, true
}

// GetSinksForChat returns the connections joined to chatID.
// Connections of the exclude user are skipped, a zero exclude skips nobody.
// Returns nil if no connection follows the chat.
func (r *Registry) GetSinksForChat(chatID domain.ChatID, exclude domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers, ok := r.chatSubscribers[chatID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range subscribers {
		b, exists := r.connections[connID]
		if !exists || (exclude != 0 && b.userID == exclude) {
			continue
		}
		sinks = append(sinks, b.conn)
	}
	return sinks
}

func (r *Registry) IsOnline(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// release must be called with the write lock held.
func (r *Registry) release(connID contract.ConnectionID) {
	b, ok := r.connections[connID]
	if !ok {
		return
	}
	r.leaveChat(connID, b.chatID)
	delete(r.connections, connID)
	if r.byUser[b.userID] == connID {
		delete(r.byUser, b.userID)
	}
}

// leaveChat ensures no empty sets are left in the chat map.
func (r *Registry) leaveChat(connID contract.ConnectionID, chatID domain.ChatID) {
	subscribers, ok := r.chatSubscribers[chatID]
	if !ok {
		return
	}
	delete(subscribers, connID)
	if len(subscribers) == 0 {
		delete(r.chatSubscribers, chatID)
	}
}

// Counts reports the live connections and the chats followed by at least one of them.
func (r *Registry) Counts() (connections, chats int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections), len(r.chatSubscribers)
}

package botfather

import (
	"chat-relay/domain"
	"sync"
	"time"
)

type State string

const (
	StateIdle             State = "idle"
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingUsername State = "awaiting_username"
)

// Session is the bot creation dialogue of one user. It is never persisted.
type Session struct {
	State     State
	BotName   string
	UpdatedAt time.Time
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
	refs    int // holders and waiters, guarded by SessionStore.mu
}

// SessionStore keeps one session per user. The read-then-write of a
// transition is serialized per user through Lock while other users proceed
// in parallel. A session idle for longer than ttl is treated as absent.
type SessionStore struct {
	mu      sync.Mutex
	entries map[domain.UserID]*sessionEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewSessionStore keeps sessions forever when ttl is not positive.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{entries: make(map[domain.UserID]*sessionEntry), ttl: ttl, now: time.Now}
}

// Lock gives exclusive access to the session of userID until release is
// called. session is nil when the user is idle, save replaces it, a nil
// argument ends the dialogue.
func (s *SessionStore) Lock(userID domain.UserID) (session *Session, save func(*Session), release func()) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &sessionEntry{}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	if e.session != nil && s.expired(e.session, s.now()) {
		e.session = nil
	}
	if e.session != nil {
		copied := *e.session
		session = &copied
	}
	save = func(next *Session) {
		if next != nil {
			next.UpdatedAt = s.now()
		}
		e.session = next
	}
	var once sync.Once
	release = func() {
		once.Do(func() {
			idle := e.session == nil
			e.mu.Unlock()
			s.mu.Lock()
			defer s.mu.Unlock()
			e.refs--
			if e.refs == 0 && idle {
				delete(s.entries, userID)
			}
		})
	}
	return session, save, release
}

// State returns the current state of userID.
func (s *SessionStore) State(userID domain.UserID) State {
	session, _, release := s.Lock(userID)
	defer release()
	if session == nil {
		return StateIdle
	}
	return session.State
}

// PurgeExpired drops the sessions idle for longer than the ttl and returns
// how many were dropped. Sessions in the middle of a transition are skipped.
func (s *SessionStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for userID, e := range s.entries {
		if e.refs > 0 {
			continue
		}
		switch {
		case e.session == nil:
			delete(s.entries, userID)
		case s.expired(e.session, now):
			purged++
			delete(s.entries, userID)
		}
	}
	return purged
}

// Active returns the number of users tracked by the store, dialogues in
// progress and transitions running.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.UpdatedAt) > s.ttl
}

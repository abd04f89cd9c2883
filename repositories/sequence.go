package repositories

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const sequenceBandwidth = 100

// Sequences hands out the int64 identifiers of every entity kind.
// Leases are persisted by Badger, so ids keep growing across restarts.
type Sequences struct {
	users    *badger.Sequence
	chats    *badger.Sequence
	messages *badger.Sequence
	bots     *badger.Sequence
}

func NewSequences(db *badger.DB) (*Sequences, error) {
	var s Sequences
	var err error
	for key, target := range map[string]**badger.Sequence{
		"seq:users":    &s.users,
		"seq:chats":    &s.chats,
		"seq:messages": &s.messages,
		"seq:bots":     &s.bots,
	} {
		if *target, err = db.GetSequence([]byte(key), sequenceBandwidth); err != nil {
			return nil, fmt.Errorf("sequence %s: %w", key, err)
		}
	}
	return &s, nil
}

// Release returns unused leases. Must be called before the database is closed.
func (s *Sequences) Release() error {
	var errs []error
	for _, seq := range []*badger.Sequence{s.users, s.chats, s.messages, s.bots} {
		if seq != nil {
			errs = append(errs, seq.Release())
		}
	}
	return errors.Join(errs...)
}

// next skips zero so that a zero id always means "unset".
func next(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if n, err = seq.Next(); err != nil {
			return 0, err
		}
	}
	return int64(n), nil
}

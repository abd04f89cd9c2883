package repositories

import (
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictAttempts bounds how often a write rejected by Badger's
// optimistic concurrency control is replayed.
const maxConflictAttempts = 5

// retryOnConflict runs write until it stops failing with badger.ErrConflict.
// Once the attempts are spent the conflict surfaces as errors.ErrConflict.
func retryOnConflict(log *slog.Logger, operation string, write func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictAttempts; attempt++ {
		if err = write(); !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		log.Debug("Write conflicted, retrying", "operation", operation, "attempt", attempt)
	}
	return fmt.Errorf("%w: %s gave up after %d attempts: %v", errors.ErrConflict, operation, maxConflictAttempts, err)
}

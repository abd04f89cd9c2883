package workers

import (
	"chat-relay/mocks"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSessionReaper_Purges_Periodically(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockExpiringStore(ctrl)

	var calls atomic.Int32
	store.EXPECT().PurgeExpired(gomock.Any()).DoAndReturn(func(time.Time) int {
		calls.Add(1)
		return 1
	}).MinTimes(2)

	reaper := NewSessionReaper(slog.Default(), store, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- reaper.Run(ctx) }()

	req.Eventually(func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-done)
}

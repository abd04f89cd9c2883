package workers

import (
	"chat-relay/mocks"
	"fmt"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"
)

func TestHealthMonitoring_Publishes_Status_Changes_Only(t *testing.T) {
	ctrl := gomock.NewController(t)
	status := mocks.NewMockStatusSetter(ctrl)

	var storageErr error
	worker := NewHealthMonitoringWorker(slog.Default(), status, 0,
		Probe{Name: "storage", Check: func() error { return storageErr }},
		Probe{Name: "always", Check: func() error { return nil }},
	)

	gomock.InOrder(
		status.EXPECT().SetServing(true),
		status.EXPECT().SetServing(false),
		status.EXPECT().SetServing(true),
	)

	// Given a healthy storage, the first check publishes serving
	worker.check()
	worker.check()

	// When the storage fails, then not serving is published once
	storageErr = fmt.Errorf("closed")
	worker.check()
	worker.check()

	// When it recovers, then serving is published again
	storageErr = nil
	worker.check()
}

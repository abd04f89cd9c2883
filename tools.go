//go:build tools

// Package tools pins mockgen, which go generate runs to refresh mocks/.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)

package rpc

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestServer_Health_Follows_Serving_Status(t *testing.T) {
	req := require.New(t)
	listener := bufconn.Listen(1 << 20)
	server := NewServer(logs.GetLoggerFromLevel(slog.LevelDebug))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return listener.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })
	client := grpc_health_v1.NewHealthClient(conn)

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		req.NoError(err)
		return resp.GetStatus()
	}

	t.Run("should not serve before the first probe", func(t *testing.T) {
		require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check())
	})

	t.Run("should serve once marked healthy", func(t *testing.T) {
		server.SetServing(true)
		require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check())
	})
}

package e2e

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const frameTimeout = 5 * time.Second

type BaseRelaySuite struct {
	suite.Suite
	Config Config
	Client *Client
	stack  *stack
}

// SetupSuite targets RELAY_URL when set, an in-process relay otherwise.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.RelayURL == "" {
		s.stack = startStack(s.T(), s.Config.VerificationCode)
		s.Config.RelayURL = s.stack.url
		s.Config.GRPCAddr = s.stack.grpcAddr
	}
	s.Client = NewClient(s.Config.RelayURL, s.trace)
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.stack != nil {
		s.stack.stop()
	}
}

// Step prints a colorized header before running fn as a subtest.
func (s *BaseRelaySuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

func (s *BaseRelaySuite) trace(format string, args ...any) {
	if s.Config.DebugJSON {
		s.T().Logf(format, args...)
	}
}

// NewUser verifies a random phone, which registers a fresh account.
func (s *BaseRelaySuite) NewUser() domain.VerifyResult {
	phone := fmt.Sprintf("+1555%07d", rand.IntN(10_000_000))
	result, err := s.Client.Verify(phone, s.Config.VerificationCode, "")
	s.Require().NoError(err)
	s.Require().True(result.Created, "phone %s was already registered", phone)
	return result
}

func (s *BaseRelaySuite) Connect(user domain.VerifyResult) *Session {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	session, err := s.Client.Connect(ctx, user.User.ID, user.Token)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = session.Close() })
	return session
}

// WithHealth provides a health client of the relay gRPC endpoint.
func (s *BaseRelaySuite) WithHealth(fn func(ctx context.Context, client grpc_health_v1.HealthClient)) {
	if s.Config.GRPCAddr == "" {
		s.T().Skip("RELAY_GRPC_ADDR not set")
	}
	conn, err := grpc.NewClient(s.Config.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	fn(ctx, grpc_health_v1.NewHealthClient(conn))
}

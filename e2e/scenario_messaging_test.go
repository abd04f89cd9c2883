package e2e

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type testMessagingSuite struct {
	BaseRelaySuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

func (s *testMessagingSuite) TestOnboarding() {
	alice := s.NewUser()

	s.Step("Step 1: New user gets Saved Messages and the BotFather chat", func() {
		chats, err := s.Client.Chats(alice.Token)
		s.Require().NoError(err)
		types := lo.Map(chats, func(c domain.ChatWithMembers, _ int) domain.ChatType { return c.Type })
		s.Require().ElementsMatch([]domain.ChatType{domain.ChatSelf, domain.ChatBot}, types)

		botChat, _ := lo.Find(chats, func(c domain.ChatWithMembers) bool { return c.Type == domain.ChatBot })
		s.Require().NotNil(botChat.LastMessage)
		s.Require().Contains(botChat.LastMessage.Content, "BotFather")
	})

	s.Step("Step 2: Verifying again logs into the same account", func() {
		again, err := s.Client.Verify(alice.User.Phone, s.Config.VerificationCode, "")
		s.Require().NoError(err)
		s.Require().False(again.Created)
		s.Require().Equal(alice.User.ID, again.User.ID)
	})

	s.Step("Step 3: A wrong code is refused", func() {
		_, err := s.Client.Verify(alice.User.Phone, "00000", "")
		var apiErr *APIError
		s.Require().ErrorAs(err, &apiErr)
		s.Require().Equal(errors.CodeInvalidCode, apiErr.Code)
	})
}

func (s *testMessagingSuite) TestDirectMessages() {
	alice, bob := s.NewUser(), s.NewUser()
	chat, err := s.Client.PrivateChat(alice.Token, bob.User.ID)
	s.Require().NoError(err)

	aliceSession, bobSession := s.Connect(alice), s.Connect(bob)

	s.Step("Step 1: The private chat is shared by both users", func() {
		again, err := s.Client.PrivateChat(bob.Token, alice.User.ID)
		s.Require().NoError(err)
		s.Require().Equal(chat.ID, again.ID)
	})

	s.Step("Step 2: A message reaches the peer hydrated with its sender", func() {
		// Frames of one connection are handled in order, so the echo proves alice joined
		s.Require().NoError(aliceSession.JoinChat(chat.ID))
		s.Require().NoError(aliceSession.Send(chat.ID, "hello bob"))
		_, err := aliceSession.NextMessage(alice.User.ID, frameTimeout)
		s.Require().NoError(err)

		s.Require().NoError(bobSession.JoinChat(chat.ID))
		s.Require().NoError(bobSession.Typing(chat.ID))
		typing, err := aliceSession.Next("typing", frameTimeout)
		s.Require().NoError(err)
		s.Require().Equal(bob.User.ID, typing.UserID)

		s.Require().NoError(aliceSession.Send(chat.ID, "how are you?"))
		message, err := bobSession.NextMessage(alice.User.ID, frameTimeout)
		s.Require().NoError(err)
		s.Require().Equal("how are you?", message.Content)
		s.Require().Equal(alice.User.FirstName, message.Sender.FirstName)
	})

	s.Step("Step 3: History is returned oldest first", func() {
		s.Require().NoError(bobSession.Send(chat.ID, "hi alice"))
		_, err := aliceSession.NextMessage(bob.User.ID, frameTimeout)
		s.Require().NoError(err)

		messages, err := s.Client.Messages(alice.Token, chat.ID, 10)
		s.Require().NoError(err)
		contents := lo.Map(messages, func(m domain.MessageWithSender, _ int) string { return m.Content })
		s.Require().Equal([]string{"hello bob", "how are you?", "hi alice"}, contents)
	})

	s.Step("Step 4: A stranger cannot join the chat", func() {
		carol := s.NewUser()
		carolSession := s.Connect(carol)
		s.Require().NoError(carolSession.JoinChat(chat.ID))
		frame, err := carolSession.Next("error", frameTimeout)
		s.Require().NoError(err)
		s.Require().Equal(errors.CodeNotMember, frame.Code)
	})

	s.Step("Step 5: Disconnecting sets the user offline", func() {
		s.Require().NoError(bobSession.Close())
		s.Require().Eventually(func() bool {
			user, err := s.Client.User(alice.Token, bob.User.ID)
			return err == nil && !user.IsOnline && user.LastSeen != nil
		}, frameTimeout, 50*time.Millisecond)
	})
}

func (s *testMessagingSuite) TestGroupInvite() {
	alice, bob := s.NewUser(), s.NewUser()

	group, err := s.Client.CreateGroup(alice.Token, "Team")
	s.Require().NoError(err)
	s.Require().NotNil(group.InviteLink)
	s.Require().True(strings.HasPrefix(*group.InviteLink, "https://t.me/+"))

	joined, err := s.Client.Join(bob.Token, *group.InviteLink)
	s.Require().NoError(err)
	s.Require().Equal(group.ID, joined.ID)

	chats, err := s.Client.Chats(bob.Token)
	s.Require().NoError(err)
	s.Require().True(lo.ContainsBy(chats, func(c domain.ChatWithMembers) bool { return c.ID == group.ID }))
}

func (s *testMessagingSuite) TestHealth() {
	s.Require().Eventually(func() bool {
		serving := false
		s.WithHealth(func(ctx context.Context, client grpc_health_v1.HealthClient) {
			resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
			serving = err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING
		})
		return serving
	}, frameTimeout, 50*time.Millisecond)
}

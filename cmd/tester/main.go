// Command tester walks a running relay through a scripted conversation:
// two accounts, a private chat, a few messages and a BotFather dialogue.
package main

import (
	"chat-relay/domain"
	"chat-relay/e2e"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

const (
	defaultRelayURL = "http://localhost:8080"
	replyTimeout    = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		color.Error.Printf("Walkthrough failed: %v\n", err)
		os.Exit(1)
	}
	color.Success.Println("Walkthrough completed")
}

func run() error {
	cfg, err := e2e.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if cfg.RelayURL == "" {
		cfg.RelayURL = defaultRelayURL
	}
	client := e2e.NewClient(cfg.RelayURL, func(format string, args ...any) {
		if cfg.DebugJSON {
			color.Gray.Printf(format+"\n", args...)
		}
	})

	step("1. Registering two accounts on %s", cfg.RelayURL)
	alice, err := register(client, cfg.VerificationCode)
	if err != nil {
		return err
	}
	bob, err := register(client, cfg.VerificationCode)
	if err != nil {
		return err
	}
	fmt.Printf("alice=%d bob=%d\n", alice.User.ID, bob.User.ID)

	step("2. Opening a private chat")
	chat, err := client.PrivateChat(alice.Token, bob.User.ID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	aliceSession, err := client.Connect(ctx, alice.User.ID, alice.Token)
	if err != nil {
		return err
	}
	defer aliceSession.Close()
	bobSession, err := client.Connect(ctx, bob.User.ID, bob.Token)
	if err != nil {
		return err
	}
	defer bobSession.Close()

	step("3. Exchanging messages")
	if err = aliceSession.JoinChat(chat.ID); err != nil {
		return err
	}
	if err = bobSession.JoinChat(chat.ID); err != nil {
		return err
	}
	// The echo of alice's own message proves both joins were handled
	if err = aliceSession.Send(chat.ID, "Hi bob!"); err != nil {
		return err
	}
	if _, err = aliceSession.NextMessage(alice.User.ID, replyTimeout); err != nil {
		return err
	}
	if err = bobSession.Send(chat.ID, "Hey alice"); err != nil {
		return err
	}
	received, err := aliceSession.NextMessage(bob.User.ID, replyTimeout)
	if err != nil {
		return err
	}
	fmt.Printf("alice received %q from %s\n", received.Content, received.Sender.FirstName)

	history, err := client.Messages(alice.Token, chat.ID, 50)
	if err != nil {
		return err
	}
	for _, message := range history {
		fmt.Printf("  [%s] %d: %s\n", message.CreatedAt.Format(time.TimeOnly), message.SenderID, message.Content)
	}

	step("4. Talking to BotFather")
	chats, err := client.Chats(alice.Token)
	if err != nil {
		return err
	}
	botChat, found := lo.Find(chats, func(c domain.ChatWithMembers) bool { return c.Type == domain.ChatBot })
	if !found {
		return fmt.Errorf("no bot chat for user %d", alice.User.ID)
	}
	botMember, _ := lo.Find(botChat.Members, func(m domain.MemberWithUser) bool { return m.UserID != alice.User.ID })
	if err = aliceSession.JoinChat(botChat.ID); err != nil {
		return err
	}
	handle := fmt.Sprintf("walkthrough_%d_bot", rand.IntN(1_000_000))
	for _, input := range []string{"/newbot", "Walkthrough", handle, "/mybots"} {
		if err = aliceSession.Send(botChat.ID, input); err != nil {
			return err
		}
		reply, err := aliceSession.NextMessage(botMember.UserID, replyTimeout)
		if err != nil {
			return fmt.Errorf("no reply to %q: %w", input, err)
		}
		color.Cyan.Printf("> %s\n", input)
		fmt.Printf("%s\n", reply.Content)
	}

	bots, err := client.Bots(alice.Token, alice.User.ID)
	if err != nil {
		return err
	}
	fmt.Printf("alice owns %d bot(s)\n", len(bots))
	return nil
}

func register(client *e2e.Client, code string) (domain.VerifyResult, error) {
	phone := fmt.Sprintf("+1555%07d", rand.IntN(10_000_000))
	result, err := client.Verify(phone, code, "")
	if err != nil {
		return domain.VerifyResult{}, fmt.Errorf("verify %s: %w", phone, err)
	}
	return result, nil
}

func step(format string, args ...any) {
	color.New(color.BgBlack, color.FgGreen).Printf("====== "+format+" ======\n", args...)
}

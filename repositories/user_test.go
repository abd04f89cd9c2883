package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestUserRepository(t *testing.T) *UserRepository {
	t.Helper()
	req := require.New(t)
	db, sequences := openTestDB(t)
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewUserRepository(db, sequences, NewUserIndex(writer), slog.Default())
}

func Test_Create_User_With_Default_Handle(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)

	user, err := repository.CreateUser(NewUser{Phone: "+15550001", FirstName: "User", CreatedAt: time.Now()})
	req.NoError(err)
	req.NotNil(user.Username)
	req.Equal("user", (*user.Username)[:4])

	byPhone, err := repository.GetUserByPhone("+15550001")
	req.NoError(err)
	req.Equal(user.ID, byPhone.ID)

	byHandle, err := repository.GetUserByHandle(*user.Username)
	req.NoError(err)
	req.Equal(user.ID, byHandle.ID)
}

func Test_Create_User_Twice_With_Same_Phone(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)

	_, err := repository.CreateUser(NewUser{Phone: "+15550001", FirstName: "Alice"})
	req.NoError(err)
	_, err = repository.CreateUser(NewUser{Phone: "+15550001", FirstName: "Alice"})
	req.ErrorIs(err, errors.ErrConflict)
}

func Test_Additional_Handles_Share_The_Username_Namespace(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)

	alice, err := repository.CreateUser(NewUser{Phone: "+1", FirstName: "Alice", Username: lo.ToPtr("alice")})
	req.NoError(err)
	bob, err := repository.CreateUser(NewUser{Phone: "+2", FirstName: "Bob", Username: lo.ToPtr("bob")})
	req.NoError(err)

	// Given Alice owns an additional handle
	_, err = repository.UpdateProfile(alice.ID, domain.ProfileUpdate{AdditionalUsernames: &[]string{"wonderland"}})
	req.NoError(err)

	// When Bob tries to take it as username, in another case
	_, err = repository.UpdateProfile(bob.ID, domain.ProfileUpdate{Username: lo.ToPtr("Wonderland")})

	// Then it is rejected and Bob keeps his handle
	req.ErrorIs(err, errors.ErrHandleTaken)
	found, err := repository.GetUserByHandle("wonderland")
	req.NoError(err)
	req.Equal(alice.ID, found.ID)
	found, err = repository.GetUserByHandle("bob")
	req.NoError(err)
	req.Equal(bob.ID, found.ID)
}

func Test_Released_Handle_Can_Be_Claimed(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)

	alice, err := repository.CreateUser(NewUser{Phone: "+1", FirstName: "Alice", Username: lo.ToPtr("alice")})
	req.NoError(err)
	bob, err := repository.CreateUser(NewUser{Phone: "+2", FirstName: "Bob", Username: lo.ToPtr("bob")})
	req.NoError(err)

	_, err = repository.UpdateProfile(alice.ID, domain.ProfileUpdate{Username: lo.ToPtr("alice_w")})
	req.NoError(err)
	updated, err := repository.UpdateProfile(bob.ID, domain.ProfileUpdate{Username: lo.ToPtr("alice")})
	req.NoError(err)
	req.Equal("alice", *updated.Username)

	_, err = repository.GetUserByHandle("bob")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Presence_Transitions(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)
	user, err := repository.CreateUser(NewUser{Phone: "+1", FirstName: "Alice"})
	req.NoError(err)

	offline, err := repository.SetPresence(user.ID, false, time.Now())
	req.NoError(err)
	req.False(offline.IsOnline)
	req.NotNil(offline.LastSeen)

	online, err := repository.SetPresence(user.ID, true, time.Now())
	req.NoError(err)
	req.True(online.IsOnline)
	req.Nil(online.LastSeen)
}

func Test_Search_By_Handle(t *testing.T) {
	req := require.New(t)
	repository := newTestUserRepository(t)

	alice, err := repository.CreateUser(NewUser{Phone: "+1", FirstName: "Alice", Username: lo.ToPtr("alice_smith")})
	req.NoError(err)
	_, err = repository.CreateUser(NewUser{Phone: "+2", FirstName: "Bob", Username: lo.ToPtr("bob")})
	req.NoError(err)

	users, err := repository.SearchByHandle("SMI", 10)
	req.NoError(err)
	req.Len(users, 1)
	req.Equal(alice.ID, users[0].ID)
}

// Package domain contains core concepts of the chat system.
// This file defines the User entity and its presence state.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"strings"
	"time"
)

type UserID int64

// User is the client-facing view of an account.
// The password hash never leaves the repository layer.
type User struct {
	ID                  UserID     `json:"id"`
	Phone               string     `json:"phone"`
	FirstName           string     `json:"firstName"`
	LastName            *string    `json:"lastName"`
	Username            *string    `json:"username"`
	AdditionalUsernames []string   `json:"additionalUsernames"`
	IsAnonymous         bool       `json:"isAnonymous"`
	Avatar              *string    `json:"avatar"`
	Bio                 *string    `json:"bio"`
	IsOnline            bool       `json:"isOnline"`
	LastSeen            *time.Time `json:"lastSeen"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// DisplayName joins first and last name the way chat titles show them.
func (u User) DisplayName() string {
	if u.LastName == nil {
		return u.FirstName
	}
	return strings.TrimSpace(u.FirstName + " " + *u.LastName)
}

// Handles returns every handle owned by the user, primary first.
func (u User) Handles() []string {
	var handles []string
	if u.Username != nil && *u.Username != "" {
		handles = append(handles, *u.Username)
	}
	return append(handles, u.AdditionalUsernames...)
}

// ProfileUpdate carries optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName           *string   `json:"firstName" validate:"omitempty,min=1,max=64"`
	LastName            *string   `json:"lastName" validate:"omitempty,max=64"`
	Username            *string   `json:"username" validate:"omitempty,handle"`
	AdditionalUsernames *[]string `json:"additionalUsernames" validate:"omitempty,max=10,dive,handle"`
	Avatar              *string   `json:"avatar" validate:"omitempty,max=512"`
	Bio                 *string   `json:"bio" validate:"omitempty,max=280"`
}

// VerifyCommand carries a phone verification attempt.
type VerifyCommand struct {
	Phone    string `json:"phone" validate:"required,e164"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password"`
}

type VerifyResult struct {
	User    User   `json:"user"`
	Token   string `json:"token"`
	Created bool   `json:"created"`
}

type UpdatePasswordCommand struct {
	UserID          UserID `json:"-" validate:"required,gt=0"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

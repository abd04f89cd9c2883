package domain

import "time"

type ChatID int64

type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
	ChatChannel ChatType = "channel"
	ChatBot     ChatType = "bot"
	ChatSelf    ChatType = "self"
)

// HasInviteLink reports whether chats of this type are issued an invite link.
func (t ChatType) HasInviteLink() bool {
	return t == ChatGroup || t == ChatChannel
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Chat struct {
	ID          ChatID    `json:"id"`
	Type        ChatType  `json:"type"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Avatar      *string   `json:"avatar"`
	IsPublic    bool      `json:"isPublic"`
	InviteLink  *string   `json:"inviteLink"`
	CreatedBy   UserID    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Membership struct {
	ChatID   ChatID    `json:"chatId"`
	UserID   UserID    `json:"userId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// MemberWithUser is a membership hydrated with the member's profile.
type MemberWithUser struct {
	Membership
	User User `json:"user"`
}

// ChatWithMembers is the hydrated chat list entry.
type ChatWithMembers struct {
	Chat
	Members     []MemberWithUser   `json:"members"`
	LastMessage *MessageWithSender `json:"lastMessage,omitempty"`
}

type CreateChatCommand struct {
	Type        ChatType `validate:"required,oneof=private group channel bot self"`
	Name        string   `validate:"required,max=128"`
	Description *string  `validate:"omitempty,max=255"`
	Avatar      *string  `validate:"omitempty,max=512"`
	IsPublic    bool
	CreatedBy   UserID `validate:"required,gt=0"`
}

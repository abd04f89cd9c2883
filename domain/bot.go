package domain

import "time"

type BotID int64

// Bot is an automated participant. Username is unique case-insensitively.
type Bot struct {
	ID          BotID     `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Token       string    `json:"token"`
	Description *string   `json:"description"`
	CreatedBy   UserID    `json:"createdBy"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateBotCommand struct {
	Name        string  `validate:"required,min=1,max=64"`
	Username    string  `validate:"required,bothandle"`
	Description *string `validate:"omitempty,max=512"`
	CreatedBy   UserID  `validate:"required,gt=0"`
}

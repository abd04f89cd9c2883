package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Validation: rejected before any write.
	ErrValidation   = fmt.Errorf("validation failed")
	ErrInvalidFrame = fmt.Errorf("invalid frame")

	// Not found: short-circuits before any write.
	ErrNotFound        = fmt.Errorf("not found")
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrChatNotFound    = fmt.Errorf("chat %w", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	ErrBotNotFound     = fmt.Errorf("bot %w", ErrNotFound)

	// Conflict: unique handles and indexes.
	ErrConflict    = fmt.Errorf("conflict")
	ErrHandleTaken = fmt.Errorf("handle already taken: %w", ErrConflict)

	// Authorization
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrPasswordRequired   = fmt.Errorf("password required")
	ErrInvalidCode        = fmt.Errorf("invalid verification code")
	ErrNotAuthenticated   = fmt.Errorf("connection is not authenticated")
	ErrNotMember          = fmt.Errorf("user is not a member of the chat")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrEmptyWords = fmt.Errorf("no words have been found")
)

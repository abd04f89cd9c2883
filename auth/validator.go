package auth

import (
	"chat-relay/errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Handles start with a letter, then letters, digits or underscores, 3 to 32 characters.
var handlePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,31}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag name or a nil function.
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return IsValidHandle(fl.Field().String())
	})
	_ = v.RegisterValidation("bothandle", func(fl validator.FieldLevel) bool {
		return IsValidBotHandle(fl.Field().String())
	})
	return v
}

func IsValidHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// IsValidBotHandle is a handle ending in "bot", case-insensitively.
func IsValidBotHandle(handle string) bool {
	return IsValidHandle(handle) && strings.HasSuffix(strings.ToLower(handle), "bot")
}

// Validate checks the struct tags of v. Any failure is wrapped in ErrValidation.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

type PasswordRequest struct {
	Password string `validate:"required,min=6,max=72"`
}

// ValidatePassword applies the password rules of the phone login.
func ValidatePassword(password string) error {
	return Validate(PasswordRequest{Password: password})
}

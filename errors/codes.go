package errors

import stderrors "errors"

// Codes carried by error frames and HTTP error bodies.
const (
	CodeValidation         = "validation_failed"
	CodeInvalidFrame       = "invalid_frame"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInvalidCredentials = "invalid_credentials"
	CodePasswordRequired   = "password_required"
	CodeInvalidCode        = "invalid_code"
	CodeNotAuthenticated   = "not_authenticated"
	CodeNotMember          = "not_member"
	CodeForbidden          = "forbidden"
	CodeInternal           = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrValidation, CodeValidation},
	{ErrInvalidFrame, CodeInvalidFrame},
	{ErrNotFound, CodeNotFound},
	{ErrConflict, CodeConflict},
	{ErrPasswordRequired, CodePasswordRequired},
	{ErrInvalidCode, CodeInvalidCode},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrNotAuthenticated, CodeNotAuthenticated},
	{ErrNotMember, CodeNotMember},
	{ErrForbidden, CodeForbidden},
}

// Code returns the client facing code of err, CodeInternal when err wraps no known sentinel.
func Code(err error) string {
	for _, c := range codes {
		if stderrors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

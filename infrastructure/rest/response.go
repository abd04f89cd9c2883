package rest

import (
	"chat-relay/errors"
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	RequiresPassword bool   `json:"requiresPassword,omitempty"`
}

var statusByCode = map[string]int{
	errors.CodeValidation:         http.StatusBadRequest,
	errors.CodeInvalidFrame:       http.StatusBadRequest,
	errors.CodeInvalidCode:        http.StatusBadRequest,
	errors.CodeNotFound:           http.StatusNotFound,
	errors.CodeConflict:           http.StatusConflict,
	errors.CodeInvalidCredentials: http.StatusUnauthorized,
	errors.CodePasswordRequired:   http.StatusUnauthorized,
	errors.CodeNotAuthenticated:   http.StatusUnauthorized,
	errors.CodeNotMember:          http.StatusForbidden,
	errors.CodeForbidden:          http.StatusForbidden,
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := errors.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := errorBody{Code: code, Message: err.Error()}
	if code == errors.CodeInternal {
		log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	body.RequiresPassword = code == errors.CodePasswordRequired
	writeJSON(w, status, body)
}

// Package rest serves the HTTP API next to the websocket endpoint.
package rest

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

type API struct {
	log       *slog.Logger
	accounts  services.IAccountService
	directory services.IDirectoryService
}

func NewAPI(log *slog.Logger, accounts services.IAccountService, directory services.IDirectoryService) *API {
	return &API{log: log, accounts: accounts, directory: directory}
}

// NewRouter mounts the API. Verification and health checks are public, every
// other /api route goes through the token middleware. ws may be nil.
func NewRouter(api *API, tokens *auth.TokenIssuer, requireToken bool, ws http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", api.Health).Methods(http.MethodGet)
	if ws != nil {
		r.Handle("/ws", ws).Methods(http.MethodGet)
	}

	public := r.PathPrefix("/api").Subrouter()
	public.Use(api.logRequests)
	public.HandleFunc("/auth/verify", api.Verify).Methods(http.MethodPost)

	protected := public.NewRoute().Subrouter()
	protected.Use(auth.Middleware(tokens, requireToken))
	protected.HandleFunc("/chats", api.ListChats).Methods(http.MethodGet)
	protected.HandleFunc("/chats", api.CreateChat).Methods(http.MethodPost)
	protected.HandleFunc("/chats/private", api.CreatePrivateChat).Methods(http.MethodPost)
	protected.HandleFunc("/chats/join", api.JoinChat).Methods(http.MethodPost)
	protected.HandleFunc("/chats/{id:[0-9]+}/messages", api.ListMessages).Methods(http.MethodGet)
	protected.HandleFunc("/messages/{id:[0-9]+}", api.EditMessage).Methods(http.MethodPatch)
	protected.HandleFunc("/bots", api.CreateBot).Methods(http.MethodPost)
	protected.HandleFunc("/users/search", api.SearchUsers).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id:[0-9]+}", api.GetUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id:[0-9]+}", api.UpdateProfile).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{id:[0-9]+}/password", api.UpdatePassword).Methods(http.MethodPut)
	protected.HandleFunc("/users/{id:[0-9]+}/bots", api.ListBots).Methods(http.MethodGet)
	return r
}

func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	var cmd domain.VerifyCommand
	if err := decode(r, &cmd); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	result, err := a.accounts.Verify(cmd)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) ListChats(w http.ResponseWriter, r *http.Request) {
	claimed, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	userID, err := actor(r, domain.UserID(claimed))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	chats, err := a.directory.ListUserChats(userID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

type createChatRequest struct {
	Type        domain.ChatType `json:"type"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Avatar      *string         `json:"avatar"`
	IsPublic    bool            `json:"isPublic"`
	CreatedBy   domain.UserID   `json:"createdBy"`
}

func (a *API) CreateChat(w http.ResponseWriter, r *http.Request) {
	var body createChatRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	creator, err := actor(r, body.CreatedBy)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	chat, err := a.directory.CreateChat(domain.CreateChatCommand{
		Type:        body.Type,
		Name:        body.Name,
		Description: body.Description,
		Avatar:      body.Avatar,
		IsPublic:    body.IsPublic,
		CreatedBy:   creator,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

type privateChatRequest struct {
	UserID domain.UserID `json:"userId"`
	PeerID domain.UserID `json:"peerId"`
}

func (a *API) CreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	var body privateChatRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	userID, err := actor(r, body.UserID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	chat, err := a.directory.CreatePrivateChatIfAbsent(userID, body.PeerID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

type joinRequest struct {
	UserID     domain.UserID `json:"userId"`
	InviteLink string        `json:"inviteLink"`
}

func (a *API) JoinChat(w http.ResponseWriter, r *http.Request) {
	var body joinRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	userID, err := actor(r, body.UserID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	chat, err := a.directory.JoinByInvite(body.InviteLink, userID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// ListMessages only checks membership when the caller is known.
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := domain.ChatID(pathID(r))
	limit, err := queryID(r, "limit")
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	claimed, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if userID, err := actor(r, domain.UserID(claimed)); err == nil {
		member, err := a.directory.IsMember(chatID, userID)
		if err != nil {
			writeError(w, r, a.log, err)
			return
		}
		if !member {
			writeError(w, r, a.log, errors.ErrNotMember)
			return
		}
	} else if errors.Code(err) == errors.CodeForbidden {
		writeError(w, r, a.log, err)
		return
	}

	messages, err := a.directory.ListMessages(chatID, int(limit))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type editRequest struct {
	UserID  domain.UserID `json:"userId"`
	Content string        `json:"content"`
}

func (a *API) EditMessage(w http.ResponseWriter, r *http.Request) {
	var body editRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	editor, err := actor(r, body.UserID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	message, err := a.directory.EditMessage(domain.EditMessageCommand{
		MessageID: domain.MessageID(pathID(r)),
		EditorID:  editor,
		Content:   body.Content,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

type createBotRequest struct {
	Name        string        `json:"name"`
	Username    string        `json:"username"`
	Description *string       `json:"description"`
	CreatedBy   domain.UserID `json:"createdBy"`
}

type createBotResponse struct {
	Bot  domain.Bot  `json:"bot"`
	Chat domain.Chat `json:"chat"`
}

func (a *API) CreateBot(w http.ResponseWriter, r *http.Request) {
	var body createBotRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	owner, err := actor(r, body.CreatedBy)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	bot, chat, err := a.directory.CreateBot(domain.CreateBotCommand{
		Name:        body.Name,
		Username:    body.Username,
		Description: body.Description,
		CreatedBy:   owner,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, createBotResponse{Bot: bot, Chat: chat})
}

func (a *API) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.accounts.SearchUsers(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.accounts.GetUser(domain.UserID(pathID(r)))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r, domain.UserID(pathID(r)))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var update domain.ProfileUpdate
	if err = decode(r, &update); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	user, err := a.accounts.UpdateProfile(userID, update)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r, domain.UserID(pathID(r)))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var cmd domain.UpdatePasswordCommand
	if err = decode(r, &cmd); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	cmd.UserID = userID
	if err = a.accounts.UpdatePassword(cmd); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) ListBots(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r, domain.UserID(pathID(r)))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	bots, err := a.directory.ListUserBots(userID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bots)
}

// actor resolves who performs the request. A token always wins and must
// match the claimed id, without one the claimed id is trusted.
func actor(r *http.Request, claimed domain.UserID) (domain.UserID, error) {
	authenticated, ok := auth.UserIDFromContext(r.Context())
	switch {
	case ok && claimed != 0 && claimed != authenticated:
		return 0, fmt.Errorf("%w: token does not belong to user %d", errors.ErrForbidden, claimed)
	case ok:
		return authenticated, nil
	case claimed <= 0:
		return 0, fmt.Errorf("%w: user id or token required", errors.ErrNotAuthenticated)
	default:
		return claimed, nil
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", errors.ErrValidation, err)
	}
	return nil
}

// pathID reads the {id} variable, the route pattern guarantees digits.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// queryID returns 0 when the parameter is absent.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errors.ErrValidation, name)
	}
	return value, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		a.log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path,
			"status", recorder.status, "duration", time.Since(start))
	})
}

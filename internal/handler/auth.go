package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arefin/authbox/internal/apperror"
	"github.com/arefin/authbox/internal/auth"
	"github.com/arefin/authbox/internal/service"
)

// AuthHandler exposes registration, login, and the identity endpoint.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → decode credentials, run the registration flow, 201
//   - HandleLogin    → decode credentials, run the login flow, 200
//   - HandleMe       → return the authenticated user (set by RequireAuth)
//
// Handlers only translate between HTTP and the service layer. Validation
// rules, hashing, and token minting all live in service.AuthService —
// a handler never decides WHETHER a registration is acceptable, only how
// to phrase the answer on the wire.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
	dev    bool
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed. dev enables
// diagnostic detail on 500 responses.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, dev bool) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
		dev:    dev,
	}
}

// credentialsRequest is the body of both register and login.
// The two endpoints intentionally share one shape — a frontend form
// switches between them without re-mapping fields.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPayload wraps the user projection under a "user" key, producing
// {"data":{"user":{...}}} in the final envelope.
type userPayload struct {
	User any `json:"user"`
}

// HandleRegister creates a new account and logs it in.
//
// HTTP: POST /api/users/register
// REQUEST BODY: {"email":"a@b.com","password":"password1"}
//
// RESPONSE: 201 {"status":"success","token":"...",
// "data":{"user":{"id":1,"email":"a@b.com","createdAt":"..."}}}
//
// 201 Created (not 200) — a resource came into existence. The response
// carries a token so the client is signed in immediately, without a
// follow-up login call.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("register: invalid JSON body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("Invalid JSON body"), h.dev)
		return
	}

	result, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, h.dev)
		return
	}

	writeSuccess(w, http.StatusCreated, result.Token, userPayload{
		User: result.User.Registered(),
	})
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /api/users/login
// REQUEST BODY: {"email":"a@b.com","password":"password1"}
//
// RESPONSE: 200 {"status":"success","token":"...",
// "data":{"user":{"id":1,"email":"a@b.com"}}}
//
// A failed login is always 401 {"status":"fail","message":"Invalid email or
// password"} — the service layer guarantees unknown-email and wrong-password
// produce that exact same response.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("login: invalid JSON body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("Invalid JSON body"), h.dev)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, h.dev)
		return
	}

	writeSuccess(w, http.StatusOK, result.Token, userPayload{
		User: result.User.View(),
	})
}

// HandleMe returns the currently authenticated user's identity.
//
// HTTP: GET /api/users/me
// Auth: Required (RequireAuth resolved the user and put it in the context)
//
// The frontend calls this on load to restore a persisted session: if the
// stored token still resolves, the user is signed in; any 401 here tells
// it to drop the stored token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Only reachable if the route was wired without RequireAuth.
		h.logger.Error("me: no user in context — route is missing the auth gate")
		writeError(w, apperror.Auth("You are not logged in. Please log in to get access"), h.dev)
		return
	}

	writeSuccess(w, http.StatusOK, "", userPayload{User: user})
}

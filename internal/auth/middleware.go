package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arefin/authbox/internal/apperror"
	"github.com/arefin/authbox/internal/model"
	"github.com/arefin/authbox/internal/repository"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can write user values into the context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth is the auth gate enforced on protected routes.
//
// It walks one request through four steps, and every failure is terminal —
// the wrapped handler never runs, and each failure has its own message so
// the client knows whether to re-login or give up:
//
//  1. Extract the bearer token from the Authorization header.
//     Missing/malformed → 401 "You are not logged in..."
//  2. Validate the token signature and expiry.
//     Invalid → 401 "Invalid token...", expired → 401 "Your token has expired..."
//  3. Resolve the token's userID against the credential store. The signature
//     alone isn't enough: the account may have been deleted after the token
//     was issued. Gone → 401 "The user belonging to this token no longer exists"
//  4. Attach the resolved {id,email} to the request context and continue.
//
// WHY RESOLVE THE USER ON EVERY REQUEST?
// It costs one primary-key lookup, and it's the only thing approximating
// revocation in a stateless-token design: deleting the account immediately
// locks out every outstanding token.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// --- Step 1: extract the bearer token ---
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "You are not logged in. Please log in to get access")
				return
			}

			// --- Step 2: validate signature and expiry ---
			userID, err := tokens.Validate(tokenStr)
			if err != nil {
				switch {
				case errors.Is(err, apperror.ErrTokenExpired):
					writeUnauthorized(w, "Your token has expired. Please log in again")
				default:
					writeUnauthorized(w, "Invalid token. Please log in again")
				}
				return
			}

			// --- Step 3: the user must still exist ---
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					writeUnauthorized(w, "The user belonging to this token no longer exists")
					return
				}
				// Store failure, not an auth failure — log it, reply generically
				logger.Error("auth gate: resolving user",
					slog.Int64("userID", userID),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, "You are not logged in. Please log in to get access")
				return
			}

			// --- Step 4: grant access ---
			ctx := context.WithValue(r.Context(), userKey, user.View())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (zero, false) if the request never passed RequireAuth.
// On a gated route the second return is always true; the check guards against
// a handler being wired onto an ungated route by mistake.
func UserFromContext(ctx context.Context) (model.UserView, bool) {
	u, ok := ctx.Value(userKey).(model.UserView)
	return u, ok && u.ID != 0
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
//
// The scheme comparison is case-insensitive per RFC 7235; everything after
// the single space is the opaque token. A header without the Bearer scheme
// (or with an empty token) counts as "not logged in", not "invalid token".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return token, true
}

// writeUnauthorized sends the standard error envelope with a 401 status.
//
// The middleware writes its own JSON rather than calling into the handler
// package — handler already imports auth for UserFromContext, and Go forbids
// import cycles. The envelope shape must stay in sync with handler/response.go.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "fail",
		"message": message,
	})
}

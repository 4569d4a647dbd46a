// Package auth provides JWT token generation/validation, password hashing,
// and the request-path auth gate for the API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs credentials to /api/users/register or /api/users/login
// 2. Server verifies them and issues a JWT access token in the response body
// 3. Client stores the token locally and attaches it to subsequent requests
//    as "Authorization: Bearer <token>"
// 4. On protected routes, the RequireAuth middleware validates the JWT,
//    resolves the user, and puts their identity in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (userID, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
// The flip side: there is no server-side revocation. A token stays valid
// until its expiry window elapses; "logout" is purely a client-side discard.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"id":42,"exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arefin/authbox/internal/apperror"
)

// DefaultTokenTTL is the expiry window used when the configuration doesn't
// override it. One day matches the stateless-session model: long enough that
// users aren't re-prompted mid-session, short enough that a leaked token
// ages out on its own.
const DefaultTokenTTL = 24 * time.Hour

const issuer = "authbox"

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens, and the expiry
// window applied to every token it issues. Both are injected — there is no
// package-level secret, so tests (and a future multi-tenant setup) can run
// several TokenServices side by side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and expiry
// window. A non-positive ttl falls back to DefaultTokenTTL.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// The user's numeric ID travels in a custom "id" claim — that's the payload
// shape the frontend and any third-party consumer of these tokens expect.
// We also mirror it into "sub" (Subject) since that is the standard JWT
// claim for identifying who a token belongs to.
type claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT access token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
// - Switch to RS256 only when verifiers shouldn't hold the signing key
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired tokens without sleeping.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the "id" claim) if the token is valid.
//
// FAILURE KINDS:
// The two ways a token can fail are deliberately distinct error kinds:
//   - expired     → apperror.ErrTokenExpired ("log in again and you're fine")
//   - anything else → apperror.ErrTokenInvalid (bad signature, malformed,
//     wrong issuer, wrong algorithm — "this token was never yours")
//
// The auth gate relies on this distinction for its user-facing messages.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into our error taxonomy
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: %w", apperror.ErrTokenExpired)
		}
		return 0, fmt.Errorf("auth: %w: %v", apperror.ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: %w: unexpected claims type", apperror.ErrTokenInvalid)
	}

	if c.UserID == 0 {
		return 0, fmt.Errorf("auth: %w: token has no user id", apperror.ErrTokenInvalid)
	}

	return c.UserID, nil
}

// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
// In a well-structured Go web app, code is organised into three layers:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Run the registration pipeline: validate → hash → persist → mint token
//   - Run the login pipeline: look up → verify hash → mint token
//   - Keep auth failures generic so responses never leak which check failed
//   - Be easily testable with fake dependencies (see auth_test.go)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/arefin/authbox/internal/apperror"
	"github.com/arefin/authbox/internal/auth"
	"github.com/arefin/authbox/internal/model"
	"github.com/arefin/authbox/internal/repository"
)

// MinPasswordLength is the registration password floor. Length is the only
// strength rule enforced server-side.
const MinPasswordLength = 8

// emailPattern accepts the loose local@domain.tld shape: some non-whitespace,
// an @, some non-whitespace, a dot, some non-whitespace. Full RFC 5322
// validation is a famous rabbit hole; the real proof of an address is
// deliverability, which this system doesn't check anyway.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing/verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by authentication operations.
// It bundles the user record and the issued JWT together so the caller
// (the HTTP handler) can build the response envelope in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new user account and immediately logs them in.
//
// VALIDATION ORDER (short-circuits on the first failure):
//  1. Both fields present
//  2. Email has the local@domain.tld shape
//  3. Password is at least MinPasswordLength characters
//  4. Email not already registered
//
// Step 4 runs twice, in effect: the GetByEmail pre-check here produces the
// friendly "User already exists" message, and the UNIQUE constraint inside
// the repository catches the race where two registrations for the same email
// pass the pre-check simultaneously — Create maps that to the same conflict
// error, so callers can't tell which path rejected them.
//
// KNOWN INFORMATION LEAK:
// "User already exists" tells the caller the email is registered, while
// Login's generic message hides it. The policies are inconsistent on purpose
// — a registration form is useless without the conflict message.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("Please provide email and password")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("Please provide a valid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("Password must be at least 8 characters long")
	}

	// Existence pre-check for a clean conflict message. ErrNotFound is the
	// happy path here; any other lookup failure is a real error.
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("User already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}

	// The repository fills in ID and CreatedAt, and converts a lost
	// uniqueness race into apperror.ErrConflict.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates an existing user by email and password.
//
// NO INFORMATION LEAK:
// An unknown email and a wrong password both return the identical generic
// apperror.ErrAuth with the same message. If the two cases were
// distinguishable — different messages, different error kinds, anything an
// attacker can observe — login would double as an email-enumeration oracle.
// (Response timing still differs: the unknown-email path skips bcrypt.
// Equalising that is out of scope here.)
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("Please provide email and password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Auth("Invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Auth("Invalid email or password")
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID.
//
// Used by the /api/users/me handler to look up the full user record after
// the middleware validates the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id == 0 {
		return nil, fmt.Errorf("service/auth: user ID must not be zero")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}

	return user, nil
}

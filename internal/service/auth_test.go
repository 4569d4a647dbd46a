package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/arefin/authbox/internal/apperror"
	"github.com/arefin/authbox/internal/auth"
	"github.com/arefin/authbox/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Using a fake (not a mock framework) keeps tests dependency-free and easy
// to read — you can see exactly what the fake does.
type fakeUserRepo struct {
	byID    map[int64]*model.User
	byEmail map[string]*model.User
	nextID  int64
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]*model.User),
		nextID:  1,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	// Mirror the real store's uniqueness constraint
	if _, exists := f.byEmail[user.Email]; exists {
		return apperror.Conflict("User already exists")
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.byEmail, u.Email)
	delete(f.byID, id)
	return nil
}

// newTestAuthService returns an AuthService wired with fake dependencies.
// The TokenService uses a short secret, suitable for tests only.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is bcrypt minimum — makes tests fast
	ps := auth.NewPasswordServiceForTest(4)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(repo, ts, ps, logger)
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.Register(context.Background(), "a@b.com", "password1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if res.Token == "" {
		t.Error("Register() returned empty token")
	}
	if res.User.ID == 0 {
		t.Error("Register() user has no ID")
	}
	if res.User.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", res.User.Email, "a@b.com")
	}
	if res.User.CreatedAt.IsZero() {
		t.Error("Register() user has no CreatedAt")
	}
	// The stored hash must be bcrypt, never the plaintext
	if res.User.PasswordHash == "password1" || !strings.HasPrefix(res.User.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, does not look like bcrypt output", res.User.PasswordHash)
	}
}

func TestRegister_ValidationOrder(t *testing.T) {
	// Each rule short-circuits: the first failing check decides the message.
	tests := []struct {
		name        string
		email       string
		password    string
		wantMessage string
	}{
		{"missing both", "", "", "Please provide email and password"},
		{"missing password", "a@b.com", "", "Please provide email and password"},
		{"missing email", "", "password1", "Please provide email and password"},
		{"bad email shape", "not-an-email", "password1", "Please provide a valid email address"},
		{"email without tld", "a@b", "password1", "Please provide a valid email address"},
		{"email with spaces", "a b@c.com", "password1", "Please provide a valid email address"},
		{"short password", "a@b.com", "1234567", "Password must be at least 8 characters long"},
		// Bad email wins over bad password — validation order is fixed
		{"bad email and short password", "nope", "123", "Please provide a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())

			_, err := svc.Register(context.Background(), tt.email, tt.password)
			if err == nil {
				t.Fatal("Register() should have failed validation")
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Register() error %v is not an *AppError", err)
			}
			if appErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "dup@example.com", "password1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "dup@example.com", "password2")
	if err == nil {
		t.Fatal("second Register() should have failed with a conflict")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_PasswordExactlyEightChars(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	// Boundary: exactly 8 characters passes
	if _, err := svc.Register(context.Background(), "edge@example.com", "12345678"); err != nil {
		t.Fatalf("Register() with 8-char password error = %v", err)
	}
}

func TestRegister_TokenResolvesToNewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.Register(context.Background(), "roundtrip@example.com", "password1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The minted token must bind to the user that was just created —
	// validate it with the same TokenService configuration and look the ID up.
	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	userID, err := ts.Validate(res.Token)
	if err != nil {
		t.Fatalf("Validate() on registration token error = %v", err)
	}
	if userID != res.User.ID {
		t.Errorf("token userID = %d, want %d", userID, res.User.ID)
	}

	found, err := svc.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "roundtrip@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "roundtrip@example.com")
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

// registerTestUser registers a user through the service so the stored hash
// is real bcrypt output.
func registerTestUser(t *testing.T, svc *AuthService, email, password string) *model.User {
	t.Helper()
	res, err := svc.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("Register(%q) error = %v", email, err)
	}
	return res.User
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := registerTestUser(t, svc, "login@example.com", "password1")

	res, err := svc.Login(context.Background(), "login@example.com", "password1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Login() returned empty token")
	}
	if res.User.ID != created.ID {
		t.Errorf("ID = %d, want %d", res.User.ID, created.ID)
	}
}

func TestLogin_WrongPasswordAndUnknownEmailLookIdentical(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registerTestUser(t, svc, "known@example.com", "password1")

	_, errWrongPassword := svc.Login(context.Background(), "known@example.com", "wrong-password")
	_, errUnknownEmail := svc.Login(context.Background(), "unknown@example.com", "password1")

	for name, err := range map[string]error{
		"wrong password": errWrongPassword,
		"unknown email":  errUnknownEmail,
	} {
		if err == nil {
			t.Fatalf("Login() with %s should have failed", name)
		}
		if !errors.Is(err, apperror.ErrAuth) {
			t.Errorf("Login() with %s: error = %v, want ErrAuth", name, err)
		}
	}

	// The two failures must be indistinguishable from outside: same kind,
	// same message. Anything else is an email-enumeration oracle.
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q — leaks which check failed",
			errWrongPassword.Error(), errUnknownEmail.Error())
	}
	if errWrongPassword.Error() != "Invalid email or password" {
		t.Errorf("message = %q, want %q", errWrongPassword.Error(), "Invalid email or password")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

func TestLogin_RepoFailureIsNotAuthError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("disk on fire")
	svc := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), "a@b.com", "password1")
	if err == nil {
		t.Fatal("Login() should propagate repository failures")
	}
	// An infrastructure failure must not masquerade as bad credentials
	if errors.Is(err, apperror.ErrAuth) {
		t.Errorf("Login() error = %v, must not be ErrAuth", err)
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID_NotFound(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.GetUserByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_ZeroID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.GetUserByID(context.Background(), 0); err == nil {
		t.Fatal("GetUserByID(0) should fail")
	}
}

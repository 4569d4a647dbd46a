package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/arefin/authbox/internal/apperror"
	"github.com/arefin/authbox/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Benefits:
// - Fast: no disk I/O
// - Isolated: each test gets its own database
// - Clean: automatically destroyed when the connection closes
//
// newTestDB is a "test helper" — a function used only in tests to reduce boilerplate.
// The `t.Helper()` call tells Go's test framework to report errors at the CALLER's
// line number, not inside this function. This makes test failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// This is like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "$2a$10$somebcrypthash",
	}

	err := db.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}

	t.Logf("Created user with ID: %d", user.ID)
}

func TestUserCreate_AssignsSequentialIDs(t *testing.T) {
	db := newTestDB(t)

	first := createTestUser(t, db, "first@example.com")
	second := createTestUser(t, db, "second@example.com")

	if first.ID == second.ID {
		t.Errorf("Create() assigned the same ID (%d) to two users", first.ID)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	// Same email — second create must fail (UNIQUE constraint)
	createTestUser(t, db, "dup@example.com")

	duplicate := &model.User{
		Email:        "dup@example.com",
		PasswordHash: "$2a$10$differenthash",
	}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should have returned an error for duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_EmailIsCaseSensitive(t *testing.T) {
	db := newTestDB(t)

	// Emails are stored and compared exactly as given — "A@b.com" and
	// "a@b.com" are two distinct accounts.
	createTestUser(t, db, "Case@example.com")

	other := &model.User{
		Email:        "case@example.com",
		PasswordHash: "$2a$10$otherhash",
	}
	if err := db.Create(context.Background(), other); err != nil {
		t.Fatalf("Create() with different casing should succeed, got: %v", err)
	}
}

// =========================================================================
// GET BY EMAIL TESTS
// =========================================================================

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup@example.com")

	found, err := db.GetByEmail(context.Background(), "lookup@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.Email != "lookup@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "lookup@example.com")
	}
	// The hash must round-trip — login verification depends on it
	if found.PasswordHash != created.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, created.PasswordHash)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByEmail(context.Background(), "nobody@example.com")

	if err == nil {
		t.Fatal("GetByEmail() should have returned an error for unknown email")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// GET BY ID TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byid@example.com")

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.Email != "byid@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "byid@example.com")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 999999)

	if err == nil {
		t.Fatal("GetByID() should have returned an error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "gone@example.com")

	if err := db.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// A deleted user must no longer resolve — this is what turns a still-valid
	// token into a "user no longer exists" rejection at the auth gate.
	_, err := db.GetByID(context.Background(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after Delete = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Delete(context.Background(), 424242)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_FreesEmailForReuse(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "recycled@example.com")

	if err := db.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Once the row is gone, the UNIQUE constraint no longer blocks the email
	if _, err := db.GetByEmail(context.Background(), "recycled@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail() after Delete = %v, want ErrNotFound", err)
	}
	createTestUser(t, db, "recycled@example.com")
}

// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered user account.
//
// The ID is a numeric, server-assigned identifier. SQLite's INTEGER PRIMARY KEY
// generates it on insert, so callers never choose their own IDs.
//
// WHY json:"-" ON PasswordHash?
// The `json:"-"` tag tells encoding/json to NEVER serialize this field.
// Even so, API responses go through the View/Registered projections below
// rather than marshalling a User directly — the hash must not leave the
// server under any code path.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserView is the public projection of a User, returned by login and the
// identity endpoint. It carries only what the frontend needs to display.
type UserView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// RegisteredUser is the projection returned by registration. It additionally
// includes the creation timestamp, matching the registration response contract.
type RegisteredUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// View returns the public projection of the user.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Email: u.Email}
}

// Registered returns the registration-response projection of the user.
func (u *User) Registered() RegisteredUser {
	return RegisteredUser{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

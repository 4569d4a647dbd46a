package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arefin/authbox/internal/model"
)

// ErrNoSession is returned by Store.Load when no session has been saved.
var ErrNoSession = errors.New("client: no saved session")

// Session is what survives between runs: the token plus the user it was
// issued to. The Go equivalent of the frontend's localStorage pair — the
// two are always written together so they can never disagree.
type Session struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

// Store persists a Session as a JSON file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStorePath returns the conventional per-user session location,
// e.g. ~/.config/authbox/session.json on Linux.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: resolving config dir: %w", err)
	}
	return filepath.Join(dir, "authbox", "session.json"), nil
}

// Save writes the session atomically: temp file in the same directory, then
// rename. A crash mid-write leaves either the old session or the new one,
// never a truncated file.
func (s *Store) Save(sess Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("client: creating session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encoding session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "session-*.json")
	if err != nil {
		return fmt.Errorf("client: creating temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("client: writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("client: closing session file: %w", err)
	}
	// The token is a credential; keep the file owner-only
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("client: restricting session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("client: replacing session file: %w", err)
	}
	return nil
}

// Load reads the saved session, or ErrNoSession if none exists.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("client: reading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("client: decoding session: %w", err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the saved session. Clearing an absent session is not an
// error — the end state is the same.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: removing session: %w", err)
	}
	return nil
}

// Manager ties the Client and the Store together into the session lifecycle
// the frontend implements across its auth context:
//
//	Restore  — on startup, validate any saved token against /me
//	Login    — authenticate, persist the new session
//	Register — create the account, persist the first session
//	Logout   — forget the session locally (tokens are stateless server-side)
type Manager struct {
	api   *Client
	store *Store
}

// NewManager creates a Manager using api for calls and store for persistence.
func NewManager(api *Client, store *Store) *Manager {
	return &Manager{api: api, store: store}
}

// Restore loads any saved session and verifies it against the server.
//
// No saved session is a normal outcome, not an error: it returns (nil, nil)
// and the caller shows the logged-out state. A saved token that the server
// rejects — or that can't be checked at all — clears the store before the
// error is returned, so a broken session never survives a restore attempt.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	sess, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	m.api.SetToken(sess.Token)
	user, err := m.api.Me(ctx)
	if err != nil {
		m.api.SetToken("")
		if clearErr := m.store.Clear(); clearErr != nil {
			return nil, clearErr
		}
		return nil, err
	}

	// Refresh the stored user in case it changed server-side
	sess.User = user
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Login authenticates and persists the resulting session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.adopt(resp)
}

// Register creates an account and persists its first session.
func (m *Manager) Register(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.api.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.adopt(resp)
}

// Logout discards the local session. The server keeps no session state, so
// there is nothing to tell it; the token simply ages out.
func (m *Manager) Logout() error {
	m.api.SetToken("")
	return m.store.Clear()
}

func (m *Manager) adopt(resp *AuthResponse) (*Session, error) {
	sess := Session{Token: resp.Token, User: resp.User}
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	m.api.SetToken(sess.Token)
	return &sess, nil
}

// Package account keeps one password record per username and the session that
// says which of them is logged in on this device.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/harlequingg/taskplanner/internal/storage"
	"github.com/harlequingg/taskplanner/internal/validator"
)

var (
	ErrEmptyInput         = errors.New("username and password must be provided")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username is already taken")
)

// Session holds the current username, if any. It is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	username string
}

func (s *Session) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.username != ""
}

func (s *Session) set(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

type Manager struct {
	store   storage.Store
	session *Session
	cost    int
}

type Option func(*Manager)

// WithCost sets the bcrypt cost used for new profiles.
func WithCost(cost int) Option {
	return func(m *Manager) {
		m.cost = cost
	}
}

func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		session: &Session{},
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Session() *Session {
	return m.session
}

// CreateProfile stores a new password record and logs the new user in.
func (m *Manager) CreateProfile(ctx context.Context, username, password string) error {
	username, err := checkCredentials(username, password)
	if err != nil {
		return err
	}

	existing, err := m.store.Get(ctx, storage.AccountKey(username))
	if err != nil {
		return fmt.Errorf("account: lookup %q: %w", username, err)
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("account: hash password: %w", err)
	}
	if err := m.store.Set(ctx, storage.AccountKey(username), hash); err != nil {
		return fmt.Errorf("account: save %q: %w", username, err)
	}
	return m.establish(ctx, username)
}

// Login compares password against the stored hash. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	username, err := checkCredentials(username, password)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			return err
		}
		return ErrInvalidCredentials
	}

	hash, err := m.store.Get(ctx, storage.AccountKey(username))
	if err != nil {
		return fmt.Errorf("account: lookup %q: %w", username, err)
	}
	if hash == nil {
		return ErrInvalidCredentials
	}
	// a corrupt stored hash is reported the same way as a wrong password
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return m.establish(ctx, username)
}

// Logout forgets the session. Persisted tasks are left alone.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, storage.SessionKey); err != nil {
		return fmt.Errorf("account: clear session: %w", err)
	}
	m.session.set("")
	return nil
}

// RestoreSession re-establishes a persisted session without checking
// credentials again.
func (m *Manager) RestoreSession(ctx context.Context) (string, bool, error) {
	v, err := m.store.Get(ctx, storage.SessionKey)
	if err != nil {
		return "", false, fmt.Errorf("account: read session: %w", err)
	}
	username := strings.TrimSpace(string(v))
	m.session.set(username)
	return username, username != "", nil
}

func (m *Manager) establish(ctx context.Context, username string) error {
	if err := m.store.Set(ctx, storage.SessionKey, []byte(username)); err != nil {
		return fmt.Errorf("account: save session: %w", err)
	}
	m.session.set(username)
	return nil
}

// checkCredentials returns the trimmed username.
func checkCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return "", ErrEmptyInput
	}
	v := validator.New()
	v.CheckUsername(username)
	v.CheckPassword(password)
	if v.HasErrors() {
		return "", v.ToError()
	}
	return username, nil
}

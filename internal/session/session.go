package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gregory-j-wilson/Suplica/internal/callbacks"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

// Session is the authenticated identity of this client.
type Session struct {
	ID        string      `yaml:"id"`
	User      *model.User `yaml:"user"`
	Token     string      `yaml:"token,omitempty"`
	CreatedAt time.Time   `yaml:"created_at"`
}

// Expires returns the token expiry, zero when there is no token or it has no exp claim.
// The token is not verified, the server does that.
func (s *Session) Expires() time.Time {
	if s == nil || s.Token == "" {
		return time.Time{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}
	}

	if claims.ExpiresAt == nil {
		return time.Time{}
	}

	return claims.ExpiresAt.Time
}

func (s *Session) Expired(now time.Time) bool {
	exp := s.Expires()

	return !exp.IsZero() && now.After(exp)
}

func (s *Session) valid() bool {
	return s != nil && s.User != nil && s.User.ID != 0
}

// Store keeps the current session in memory and in a yaml file.
type Store struct {
	logger *slog.Logger
	fname  string

	mx      sync.RWMutex
	current *Session

	changes *callbacks.Callback[*Session]
}

func NewStore(fname string) *Store {
	return &Store{
		logger:  slog.Default().With("logger", "session"),
		fname:   fname,
		changes: callbacks.New[*Session](),
	}
}

// OnChange registers fn to be called after login, logout and invalidation. On logout fn gets nil.
func (s *Store) OnChange(name string, fn func(*Session)) {
	s.changes.Add(name, fn)
}

func (s *Store) Current() *Session {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.current
}

func (s *Store) User() *model.User {
	if c := s.Current(); c != nil {
		return c.User
	}

	return nil
}

func (s *Store) LoggedIn() bool {
	return s.Current() != nil
}

// Restore loads the saved session. A missing, unreadable or expired record means logged out.
func (s *Store) Restore() (*Session, error) {
	sess, err := s.read()

	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		s.logger.Warn("bad session file, removing", slog.Any("error", err))
		_ = s.remove()

		return nil, nil
	}

	if !sess.valid() {
		s.logger.Warn("invalid session record, removing")
		_ = s.remove()

		return nil, nil
	}

	if sess.Expired(time.Now()) {
		s.logger.Info("session token expired")
		_ = s.remove()

		return nil, nil
	}

	s.mx.Lock()
	s.current = sess
	s.mx.Unlock()

	s.logger.Info("session restored", slog.String("user", sess.User.Email))

	return sess, nil
}

// Login creates a new session for the user and persists it.
func (s *Store) Login(user *model.User, token string) (*Session, error) {
	if user == nil || user.ID == 0 {
		return nil, fmt.Errorf("no user")
	}

	sess := &Session{
		ID:        uuid.NewString(),
		User:      &model.User{ID: user.ID, Name: user.Name, Email: user.Email},
		Token:     token,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.write(sess); err != nil {
		return nil, err
	}

	s.mx.Lock()
	s.current = sess
	s.mx.Unlock()

	s.logger.Info("logged in", slog.String("user", user.Email))
	s.changes.Notify(sess)

	return sess, nil
}

// Logout erases the session and notifies listeners.
func (s *Store) Logout() error {
	s.mx.Lock()
	s.current = nil
	s.mx.Unlock()

	err := s.remove()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("can't remove session file", slog.Any("error", err))
	} else {
		err = nil
	}

	s.changes.Notify(nil)

	return err
}

// Invalidate ends the session after the server rejected it.
func (s *Store) Invalidate(reason string) {
	if !s.LoggedIn() {
		return
	}

	s.logger.Warn("session invalidated", slog.String("reason", reason))

	_ = s.Logout()
}

func (s *Store) read() (*Session, error) {
	b, err := os.ReadFile(s.fname)
	if err != nil {
		return nil, err
	}

	sess := new(Session)
	if err := yaml.Unmarshal(b, sess); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.fname, err)
	}

	return sess, nil
}

func (s *Store) write(sess *Session) error {
	b, err := yaml.Marshal(sess)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.fname); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	tmp := s.fname + ".tmp"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.fname)
}

func (s *Store) remove() error {
	return os.Remove(s.fname)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/storage"
	"go.uber.org/zap"
)

const AggregateType = "Session"

const (
	EventUserLoggedIn  = "UserLoggedIn"
	EventUserLoggedOut = "UserLoggedOut"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	ErrEmptyToken   = errors.New("token is required")
	ErrInvalidTheme = errors.New("theme must be light or dark")
)

type UserLoggedIn struct {
	Username   string    `json:"username"`
	IsAdmin    bool      `json:"is_admin"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

type UserLoggedOut struct {
	Username    string    `json:"username"`
	Reason      string    `json:"reason"`
	LoggedOutAt time.Time `json:"logged_out_at"`
}

// Identity is a point-in-time copy of the session
type Identity struct {
	Token    string
	Username string
	IsAdmin  bool
}

// IsAuthenticated reports whether a token is present
func (i Identity) IsAuthenticated() bool {
	return i.Token != ""
}

// Session holds the signed-in identity and mirrors it to the store. It is
// safe for concurrent use; Token is read by the HTTP client on every request.
type Session struct {
	mu        sync.RWMutex
	identity  Identity
	theme     string
	store     storage.KeyValueStore
	publisher activity.Publisher
	logger    *zap.Logger
}

// Load restores the session from the store. A persisted JWT that has
// already expired is dropped instead of being replayed to the backend.
func Load(ctx context.Context, store storage.KeyValueStore, publisher activity.Publisher, logger *zap.Logger) *Session {
	if publisher == nil {
		publisher = activity.Nop{}
	}
	s := &Session{
		theme:     ThemeLight,
		store:     store,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "session")),
	}

	if theme, ok := s.read(ctx, storage.KeyTheme); ok && validTheme(theme) {
		s.theme = theme
	}

	token, ok := s.read(ctx, storage.KeyToken)
	if !ok || token == "" {
		return s
	}
	if exp, ok := auth.TokenExpiry(token); ok && time.Now().After(exp) {
		s.logger.Info("persisted token expired, starting signed out", zap.Time("expired_at", exp))
		if err := store.Remove(ctx, storage.KeyToken, storage.KeyUsername, storage.KeyIsAdmin); err != nil {
			s.logger.Warn("failed to remove expired session", zap.Error(err))
		}
		return s
	}

	username, _ := s.read(ctx, storage.KeyUsername)
	isAdmin, _ := s.read(ctx, storage.KeyIsAdmin)
	s.identity = Identity{
		Token:    token,
		Username: username,
		IsAdmin:  isAdmin == "true",
	}
	return s
}

func (s *Session) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read session value", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

// Login replaces the whole identity. Token, username and admin flag are
// written in one store call; the next request carries the new token.
func (s *Session) Login(ctx context.Context, token, username string, isAdmin bool) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.SetMany(ctx, map[string]string{
		storage.KeyToken:    token,
		storage.KeyUsername: username,
		storage.KeyIsAdmin:  formatBool(isAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.identity = Identity{Token: token, Username: username, IsAdmin: isAdmin}

	s.publisher.Publish(ctx, AggregateType, EventUserLoggedIn, UserLoggedIn{
		Username:   username,
		IsAdmin:    isAdmin,
		LoggedInAt: time.Now(),
	})
	return nil
}

// Clear signs out. extraKeys are removed from the store in the same call,
// which lets logout drop the cart snapshot together with the identity.
func (s *Session) Clear(ctx context.Context, reason string, extraKeys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx, reason, extraKeys)
}

// Invalidate clears the session only if token is still the current one.
// It reports whether this call performed the teardown, so concurrent
// rejections of the same token tear down exactly once and a rejection of
// an older token never signs out a newer login. The in-memory identity is
// gone once it returns true, even when the store error is also non-nil.
func (s *Session) Invalidate(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" || s.identity.Token != token {
		return false, nil
	}
	if err := s.clearLocked(ctx, "unauthorized", nil); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Session) clearLocked(ctx context.Context, reason string, extraKeys []string) error {
	keys := append([]string{storage.KeyToken, storage.KeyUsername, storage.KeyIsAdmin}, extraKeys...)
	// memory is reset even if the store fails, so no request reuses the token
	username := s.identity.Username
	s.identity = Identity{}

	if err := s.store.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("failed to remove persisted session: %w", err)
	}

	s.publisher.Publish(ctx, AggregateType, EventUserLoggedOut, UserLoggedOut{
		Username:    username,
		Reason:      reason,
		LoggedOutAt: time.Now(),
	})
	return nil
}

// Token returns the current bearer token, or "" when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Username
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.IsAdmin
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Identity returns a copy of the current identity
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// ExpiresAt returns the token's exp claim when the token is a JWT
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	return auth.TokenExpiry(token)
}

func (s *Session) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme stores the display theme preference
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	if !validTheme(theme) {
		return ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, storage.KeyTheme, theme); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	s.theme = theme
	return nil
}

// ToggleTheme switches between light and dark and returns the new theme
func (s *Session) ToggleTheme(ctx context.Context) (string, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

func validTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

package store

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

// Password bounds enforced on sign-up before any request is made. The upper
// bound is bcrypt's input limit.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// refreshWindow is how close to expiry a restored session gets refreshed.
const refreshWindow = 5 * time.Minute

// Provider is the identity service behind AuthStore.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, session *model.Session) (*model.Session, error)
	SignOut(ctx context.Context, session *model.Session) error
}

// SessionPersister keeps the session across process restarts.
type SessionPersister interface {
	Load() (*model.Session, error)
	Save(s *model.Session) error
	Clear() error
}

// UserFacing is implemented by errors whose message is safe to show as is.
type UserFacing interface {
	UserMessage() string
}

// AuthStore holds the current session. Initialized distinguishes "not yet
// checked" from "checked and signed out".
type AuthStore struct {
	provider Provider
	persist  SessionPersister
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.RWMutex
	session     *model.Session
	initialized bool

	notifyMu  sync.Mutex
	listeners map[int]func(*model.Session)
	nextID    int
}

func NewAuthStore(provider Provider, persist SessionPersister, logger *zap.Logger) *AuthStore {
	return &AuthStore{
		provider:  provider,
		persist:   persist,
		logger:    logger.Named("auth_store"),
		now:       time.Now,
		listeners: make(map[int]func(*model.Session)),
	}
}

// Initialize restores a persisted session. An expired one is discarded; one
// close to expiry is refreshed. Initialized is true afterwards whatever the
// outcome.
func (s *AuthStore) Initialize(ctx context.Context) {
	sess, err := s.persist.Load()
	if err != nil {
		s.logger.Warn("load persisted session failed", zap.Error(err))
		sess = nil
	}

	now := s.now()
	switch {
	case sess == nil:
	case sess.Expired(now):
		s.logger.Info("persisted session expired", zap.String("user_id", sess.UserID))
		s.clearPersisted()
		sess = nil
	case sess.ExpiresAt.Sub(now) < refreshWindow:
		refreshed, err := s.provider.Refresh(ctx, sess)
		if err != nil {
			s.logger.Warn("refresh persisted session failed", zap.Error(err))
		} else {
			sess = refreshed
			s.save(sess)
		}
	}

	s.mu.Lock()
	s.session = sess
	s.initialized = true
	s.mu.Unlock()
	s.publish(sess)
}

// SignIn returns "" on success or a message for the user.
func (s *AuthStore) SignIn(ctx context.Context, email, password string) string {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "Enter your email and password."
	}

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in failed", zap.String("email", email), zap.Error(err))
		return userMessage(err, "Could not sign in. Check your connection and try again.")
	}
	s.setSession(sess)
	return ""
}

// SignUp returns "" on success or a message for the user.
func (s *AuthStore) SignUp(ctx context.Context, email, password string) string {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "Enter your email and password."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Enter a valid email address."
	}
	if len(password) < MinPasswordLength {
		return "Password must be at least 8 characters."
	}
	if len(password) > MaxPasswordBytes {
		return "Password must be at most 72 bytes."
	}

	sess, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Info("sign up failed", zap.String("email", email), zap.Error(err))
		return userMessage(err, "Could not create your account. Check your connection and try again.")
	}
	s.setSession(sess)
	return ""
}

// SignOut clears the session locally even if the provider call fails.
func (s *AuthStore) SignOut(ctx context.Context) {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()

	if sess != nil {
		if err := s.provider.SignOut(ctx, sess); err != nil {
			s.logger.Warn("provider sign out failed", zap.Error(err))
		}
	}
	s.clearPersisted()
	s.publish(nil)
}

// Refresh silently renews the current session's token.
func (s *AuthStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return ErrNoSession
	}

	refreshed, err := s.provider.Refresh(ctx, sess)
	if err != nil {
		s.logger.Warn("session refresh failed", zap.Error(err))
		return err
	}
	s.setSession(refreshed)
	return nil
}

func (s *AuthStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Session returns a copy of the current session, or nil when signed out.
func (s *AuthStore) Session() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	c := *s.session
	return &c
}

// CurrentUserID returns "" when signed out.
func (s *AuthStore) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.UserID
}

// AccessToken returns the bearer token for API calls, or "".
func (s *AuthStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// Subscribe registers fn for session changes and returns a func that removes it.
func (s *AuthStore) Subscribe(fn func(*model.Session)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *AuthStore) setSession(sess *model.Session) {
	s.mu.Lock()
	s.session = sess
	s.initialized = true
	s.mu.Unlock()
	s.save(sess)
	s.publish(sess)
}

func (s *AuthStore) save(sess *model.Session) {
	if err := s.persist.Save(sess); err != nil {
		s.logger.Warn("persist session failed", zap.Error(err))
	}
}

func (s *AuthStore) clearPersisted() {
	if err := s.persist.Clear(); err != nil {
		s.logger.Warn("clear persisted session failed", zap.Error(err))
	}
}

func (s *AuthStore) publish(sess *model.Session) {
	var c *model.Session
	if sess != nil {
		cp := *sess
		c = &cp
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, fn := range s.listeners {
		fn(c)
	}
}

func userMessage(err error, fallback string) string {
	var uf UserFacing
	if errors.As(err, &uf) {
		return uf.UserMessage()
	}
	return fallback
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/repository"
)

const (
	// MinPasswordLength is the shortest password SignUp accepts.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// Service implements email/password accounts over a UserRepository.
type Service struct {
	users  repository.UserRepository
	issuer *Issuer
	logger *zap.Logger
}

func NewService(users repository.UserRepository, issuer *Issuer, logger *zap.Logger) *Service {
	return &Service{users: users, issuer: issuer, logger: logger.Named("auth")}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("account created", zap.String("user_id", u.ID))
	return s.session(u.ID, u.Email)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u.ID, u.Email)
}

// Refresh reissues a token for a still-valid session whose user exists.
func (s *Service) Refresh(ctx context.Context, sess *model.Session) (*model.Session, error) {
	if sess == nil {
		return nil, ErrInvalidToken
	}
	claims, err := s.issuer.Verify(sess.AccessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.session(u.ID, u.Email)
}

// SignOut is a no-op; tokens are stateless and simply expire.
func (s *Service) SignOut(context.Context, *model.Session) error { return nil }

func (s *Service) session(userID, email string) (*model.Session, error) {
	tok, exp, err := s.issuer.Issue(userID, email)
	if err != nil {
		return nil, err
	}
	return &model.Session{UserID: userID, Email: email, AccessToken: tok, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

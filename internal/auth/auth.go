// Package auth implements password login, access tokens, and rotating
// refresh sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroomhq/stockroom/internal/domain"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so login failures do not reveal which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers expired, malformed, and revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// userRepository is the subset of store.UserStore that Service requires.
type userRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	DeleteExpiredSessions(ctx context.Context) error
}

type Service struct {
	users      userRepository
	tokens     *TokenManager
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewService(users userRepository, tokens *TokenManager, refreshTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, refreshTTL: refreshTTL, logger: logger}
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// EnsureUser creates the user if no account with that email exists yet. Used
// to bootstrap the admin account from configuration at startup.
func (s *Service) EnsureUser(ctx context.Context, email, password string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return err
	}
	s.logger.Info("user created", "user_id", user.ID, "email", email)
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// session is deleted so each refresh token works exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := s.users.DeleteExpiredSessions(ctx); err != nil {
		s.logger.Error("failed to prune expired sessions", "error", err)
	}

	session, err := s.users.GetSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}
	if time.Now().After(session.ExpiresAt) {
		if err := s.users.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Error("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, ErrInvalidToken
	}

	if err := s.users.DeleteSession(ctx, session.ID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, session.UserID)
}

// Authenticate verifies an access token and confirms the user still exists.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	userID, err := s.tokens.Verify(accessToken)
	if err != nil {
		return 0, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func (s *Service) issuePair(ctx context.Context, userID int64) (*TokenPair, error) {
	accessToken, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.NewString()
	if err := s.users.CreateSession(ctx, &domain.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

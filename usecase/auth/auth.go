// Package auth is the identity backend: accounts with bcrypt password
// hashes, sessions registered in the session repository and HS256 access
// tokens that reference them.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/token"
	"github.com/fastygo/taskflow/repository"
)

const minPasswordLength = 6

// Grant is the outcome of a successful sign-in or sign-up.
type Grant struct {
	AccessToken string
	Session     *domain.Session
	User        *domain.User
}

// Identity is what a verified access token resolves to.
type Identity struct {
	UserID    string
	SessionID string
	Email     string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Issuer
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens *token.Issuer, ttl time.Duration, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (uc *UseCase) WithHashCost(cost int) *UseCase {
	uc.cost = cost
	return uc
}

// SignUp creates an account and signs it in.
func (uc *UseCase) SignUp(ctx context.Context, email, password, fullName string) (*Grant, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	user := &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return uc.grant(ctx, user)
}

// SignIn checks the password and opens a new session.
func (uc *UseCase) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("password mismatch", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	return uc.grant(ctx, user)
}

// Authenticate verifies the token and that its session is still registered.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := uc.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if session.UserID != claims.Subject || session.IsExpired(uc.now()) {
		return nil, domain.ErrUnauthorized
	}
	return &Identity{UserID: claims.Subject, SessionID: claims.SessionID, Email: claims.Email}, nil
}

// SignOut revokes the session behind the identity.
func (uc *UseCase) SignOut(ctx context.Context, id *Identity) error {
	if id == nil || id.SessionID == "" {
		return domain.ErrUnauthorized
	}
	if err := uc.sessions.Delete(ctx, id.SessionID); err != nil {
		return err
	}
	uc.logger.Info("session revoked", zap.String("user_id", id.UserID), zap.String("session_id", id.SessionID))
	return nil
}

// User returns the account behind the identity.
func (uc *UseCase) User(ctx context.Context, id *Identity) (*domain.User, error) {
	if id == nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, id.UserID)
}

func (uc *UseCase) grant(ctx context.Context, user *domain.User) (*Grant, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	access, err := uc.tokens.Issue(session, user.Email)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, err
	}
	session.AccessToken = access
	session.User = user
	return &Grant{AccessToken: access, Session: session, User: user}, nil
}

package rest

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/token"
)

// AuthClient signs users in and out against the /auth/v1 endpoints.
type AuthClient struct {
	baseClient
}

func NewAuthClient(cfg Config, logger *zap.Logger) *AuthClient {
	return &AuthClient{baseClient: newBaseClient(cfg, logger)}
}

func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var out transport.TokenPayload
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  [][2]string{{"grant_type", "password"}},
		body:   transport.CredentialsRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return nil, authError(err)
	}
	return sessionFromToken(out)
}

func (c *AuthClient) SignUp(ctx context.Context, email, password, fullName string) (*domain.Session, error) {
	var out transport.TokenPayload
	body := transport.CredentialsRequest{Email: email, Password: password, Data: transport.FullNameData(fullName)}
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   body,
	}, &out)
	if err != nil {
		return nil, authError(err)
	}
	return sessionFromToken(out)
}

func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	}, nil)
	return authError(err)
}

// User validates the token with the backend and returns its owner.
func (c *AuthClient) User(ctx context.Context, accessToken string) (*domain.User, error) {
	var out transport.UserPayload
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	}, &out)
	if err != nil {
		return nil, authError(err)
	}
	return out.ToDomain(), nil
}

// UpdateFullName changes the signed-in user's display name.
func (c *AuthClient) UpdateFullName(ctx context.Context, accessToken, fullName string) (*domain.User, error) {
	var out transport.UserPayload
	_, err := c.do(ctx, call{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		token:  accessToken,
		body:   transport.UserUpdateRequest{Data: map[string]string{"full_name": fullName}},
	}, &out)
	if err != nil {
		return nil, authError(err)
	}
	return out.ToDomain(), nil
}

func sessionFromToken(out transport.TokenPayload) (*domain.Session, error) {
	claims, err := token.ParseUnverified(out.AccessToken)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "malformed token response", err)
	}
	expires := claims.Expiry()
	if expires.IsZero() && out.ExpiresAt > 0 {
		expires = time.Unix(out.ExpiresAt, 0)
	}
	user := out.User.ToDomain()
	if user.ID == "" {
		user.ID = claims.Subject
	}
	return &domain.Session{
		ID:          claims.SessionID,
		UserID:      user.ID,
		AccessToken: out.AccessToken,
		User:        user,
		ExpiresAt:   expires,
		CreatedAt:   time.Now(),
	}, nil
}

// authError keeps credential failures distinct from the task-oriented
// not-found mapping of statusError.
func authError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return domain.ErrUserNotFound
	}
	if domain.IsDomainError(err, domain.ErrCodeUnauthorized) || domain.IsDomainError(err, domain.ErrCodeConflict) ||
		domain.IsDomainError(err, domain.ErrCodeInvalid) {
		return err
	}
	return domain.WrapError(domain.ErrCodeUnavailable, "auth backend unavailable", err)
}

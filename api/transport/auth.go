package transport

import (
	"time"

	"github.com/fastygo/taskflow/domain"
)

const metaFullName = "full_name"

// UserPayload is the wire shape of a user.
type UserPayload struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TokenPayload is returned by sign-in and sign-up.
type TokenPayload struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	ExpiresAt   int64       `json:"expires_at"`
	User        UserPayload `json:"user"`
}

func NewUserPayload(u *domain.User) UserPayload {
	p := UserPayload{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if u.FullName != "" {
		p.UserMetadata = map[string]string{metaFullName: u.FullName}
	}
	return p
}

func (u UserPayload) ToDomain() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.UserMetadata[metaFullName],
		CreatedAt: u.CreatedAt,
	}
}

// NewTokenPayload renders a session for the wire.
func NewTokenPayload(accessToken string, session *domain.Session, user *domain.User, now time.Time) TokenPayload {
	return TokenPayload{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(session.ExpiresAt.Sub(now).Seconds()),
		ExpiresAt:   session.ExpiresAt.Unix(),
		User:        NewUserPayload(user),
	}
}

// FullName reads the display name from sign-up or update metadata.
func FullName(data map[string]string) string {
	return data[metaFullName]
}

// FullNameData builds metadata carrying a display name.
func FullNameData(fullName string) map[string]string {
	if fullName == "" {
		return nil
	}
	return map[string]string{metaFullName: fullName}
}

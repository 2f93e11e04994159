package domain

import "time"

// Session represents an authenticated login. The server keeps it in Redis
// keyed by ID; the client persists it locally together with the access token.
type Session struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	AccessToken string            `json:"access_token,omitempty"`
	User        *User             `json:"user,omitempty"`
	ExpiresAt   time.Time         `json:"expires_at"`
	CreatedAt   time.Time         `json:"created_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

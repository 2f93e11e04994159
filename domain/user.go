package domain

import (
	"net/mail"
	"strings"
	"time"
)

// User represents an authenticated identity.
type User struct {
	ID           string    `json:"id" yaml:"id"`
	Email        string    `json:"email,omitempty" yaml:"email,omitempty"`
	FullName     string    `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	PasswordHash string    `json:"-" yaml:"-"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// DisplayName prefers the full name, then the local part of the email.
func (u *User) DisplayName() string {
	if u == nil {
		return "User"
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

// FirstName returns the first word of the display name.
func (u *User) FirstName() string {
	name := u.DisplayName()
	if first, _, ok := strings.Cut(name, " "); ok {
		return first
	}
	return name
}

// NormalizeEmail trims and lowercases email and accepts only a bare address,
// so "Bob <bob@x.io>" is rejected rather than stored verbatim.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

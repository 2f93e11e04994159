// Package token issues and reads the HS256 access tokens exchanged between
// the auth backend and clients.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/taskflow/domain"
)

// Claims carried by every access token. Subject is the user id.
type Claims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a shared secret.
type Issuer struct {
	secret []byte
	issuer string
}

func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token bound to the session and its user.
func (i *Issuer) Issue(session *domain.Session, email string) (string, error) {
	if session == nil || session.UserID == "" || session.ID == "" {
		return "", domain.ErrInvalidPayload
	}
	claims := Claims{
		Email:     email,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature, algorithm, issuer and expiry.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid access token", err)
	}
	if i.issuer != "" && claims.Issuer != i.issuer {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "unexpected token issuer")
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "incomplete token claims")
	}
	return &claims, nil
}

// ParseUnverified decodes claims without checking the signature. Clients use
// it to learn the session id and expiry of a token the server handed them.
func ParseUnverified(raw string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("decode access token: missing subject")
	}
	return &claims, nil
}

// Expiry returns the token expiry or the zero time.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

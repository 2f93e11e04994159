package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fastygo/taskflow/domain"
)

type account struct {
	user     domain.User
	password string
}

// FakeAuthenticator is an in-memory identity provider issuing opaque tokens.
type FakeAuthenticator struct {
	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
	seq      int

	ExpiresAt time.Time

	SignInErr  error
	SignUpErr  error
	SignOutErr error
	UserErr    error

	Calls map[string]int
}

func NewFakeAuthenticator() *FakeAuthenticator {
	return &FakeAuthenticator{
		accounts:  make(map[string]account),
		tokens:    make(map[string]string),
		ExpiresAt: time.Now().Add(time.Hour),
		Calls:     make(map[string]int),
	}
}

// Register creates an account without issuing a session.
func (f *FakeAuthenticator) Register(email, password, fullName string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.register(email, password, fullName)
}

func (f *FakeAuthenticator) register(email, password, fullName string) domain.User {
	f.seq++
	u := domain.User{ID: fmt.Sprintf("user-%d", f.seq), Email: strings.ToLower(email), FullName: fullName}
	f.accounts[u.Email] = account{user: u, password: password}
	return u
}

func (f *FakeAuthenticator) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignIn"]++
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	acc, ok := f.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		return nil, domain.ErrInvalidCredentials
	}
	return f.issue(acc.user), nil
}

func (f *FakeAuthenticator) SignUp(_ context.Context, email, password, fullName string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignUp"]++
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if _, exists := f.accounts[strings.ToLower(email)]; exists {
		return nil, domain.ErrEmailTaken
	}
	return f.issue(f.register(email, password, fullName)), nil
}

func (f *FakeAuthenticator) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["SignOut"]++
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	delete(f.tokens, accessToken)
	return nil
}

func (f *FakeAuthenticator) User(_ context.Context, accessToken string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["User"]++
	if f.UserErr != nil {
		return nil, f.UserErr
	}
	email, ok := f.tokens[accessToken]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	u := f.accounts[email].user
	return &u, nil
}

// Revoke invalidates a token as if it expired server side.
func (f *FakeAuthenticator) Revoke(accessToken string) {
	f.mu.Lock()
	delete(f.tokens, accessToken)
	f.mu.Unlock()
}

// Active reports whether accessToken is still accepted.
func (f *FakeAuthenticator) Active(accessToken string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[accessToken]
	return ok
}

func (f *FakeAuthenticator) issue(u domain.User) *domain.Session {
	f.seq++
	tok := fmt.Sprintf("token-%d", f.seq)
	f.tokens[tok] = u.Email
	user := u
	return &domain.Session{
		ID:          fmt.Sprintf("session-%d", f.seq),
		UserID:      u.ID,
		AccessToken: tok,
		User:        &user,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   time.Now(),
	}
}

// MemoryCache keeps the persisted session in memory.
type MemoryCache struct {
	mu      sync.Mutex
	session *domain.Session

	LoadErr  error
	SaveErr  error
	ClearErr error
}

func (c *MemoryCache) Load() (*domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadErr != nil {
		return nil, c.LoadErr
	}
	if c.session == nil {
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

func (c *MemoryCache) Save(s *domain.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SaveErr != nil {
		return c.SaveErr
	}
	cp := *s
	c.session = &cp
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ClearErr != nil {
		return c.ClearErr
	}
	c.session = nil
	return nil
}

// Stored returns the persisted session without going through Load.
func (c *MemoryCache) Stored() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

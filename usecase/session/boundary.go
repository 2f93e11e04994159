// Package session supplies the signed-in user to the rest of the client and
// tracks its lifecycle: Loading while a persisted session is restored, then
// SignedIn or SignedOut.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

type State int

const (
	Loading State = iota
	SignedIn
	SignedOut
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case SignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Authenticator is the external identity provider.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (*domain.User, error)
}

// Cache persists the current session between runs.
type Cache interface {
	Load() (*domain.Session, error)
	Save(session *domain.Session) error
	Clear() error
}

// Listener observes changes of the current user id; "" means signed out.
type Listener func(ctx context.Context, prevUser, nextUser string)

const minPasswordLength = 6

type Boundary struct {
	auth    Authenticator
	cache   Cache
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	state     State
	current   *domain.Session
	listeners []Listener
}

func New(auth Authenticator, cache Cache, timeout time.Duration, logger *zap.Logger) *Boundary {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Boundary{
		auth:    auth,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		state:   Loading,
	}
}

// OnChange registers l for every change of the signed-in user.
func (b *Boundary) OnChange(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// TaskSession is the part of the task state manager driven by sign-in state.
type TaskSession interface {
	Begin(owner string)
	Refresh(ctx context.Context) error
	Reset()
}

// Bind keeps tasks in step with the session: a user appearing triggers a
// full reload for that owner, a user disappearing discards the list.
func (b *Boundary) Bind(tasks TaskSession) {
	b.OnChange(func(ctx context.Context, prev, next string) {
		if prev != "" {
			tasks.Reset()
		}
		if next == "" {
			return
		}
		tasks.Begin(next)
		if err := tasks.Refresh(ctx); err != nil {
			b.logger.Warn("initial task load failed", zap.String("user_id", next), zap.Error(err))
		}
	})
}

// CurrentUser returns the signed-in user id.
func (b *Boundary) CurrentUser() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != SignedIn || b.current == nil {
		return "", false
	}
	return b.current.UserID, true
}

// Loading reports whether the session is still being restored.
func (b *Boundary) Loading() bool {
	return b.State() == Loading
}

func (b *Boundary) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// User returns the signed-in user's profile, if known.
func (b *Boundary) User() *domain.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil || b.current.User == nil {
		return nil
	}
	u := *b.current.User
	return &u
}

// AccessToken returns the bearer token for store calls, or "".
func (b *Boundary) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return ""
	}
	return b.current.AccessToken
}

// Restore loads a persisted session, discarding it when expired or rejected
// by the identity provider.
func (b *Boundary) Restore(ctx context.Context) error {
	b.setLoading()

	stored, err := b.cache.Load()
	if err != nil {
		b.logger.Warn("reading persisted session failed", zap.Error(err))
		b.apply(ctx, nil)
		return err
	}
	if stored == nil {
		b.apply(ctx, nil)
		return nil
	}
	if stored.IsExpired(b.now()) {
		b.logger.Info("persisted session expired", zap.String("user_id", stored.UserID))
		b.forget()
		b.apply(ctx, nil)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	user, err := b.auth.User(callCtx, stored.AccessToken)
	cancel()
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			b.logger.Info("persisted session rejected", zap.String("user_id", stored.UserID))
			b.forget()
			b.apply(ctx, nil)
			return nil
		}
		b.apply(ctx, nil)
		return err
	}
	if user.ID != stored.UserID {
		b.forget()
		b.apply(ctx, nil)
		return domain.NewError(domain.ErrCodeUnauthorized, "persisted session belongs to another user")
	}
	stored.User = user
	b.apply(ctx, stored)
	return nil
}

// SignIn authenticates with email and password.
func (b *Boundary) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	s, err := b.auth.SignIn(callCtx, email, password)
	if err != nil {
		b.logger.Warn("sign in failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return b.establish(ctx, s)
}

// SignUp registers a new account and signs it in.
func (b *Boundary) SignUp(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 6 characters")
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	s, err := b.auth.SignUp(callCtx, email, password, strings.TrimSpace(fullName))
	if err != nil {
		b.logger.Warn("sign up failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return b.establish(ctx, s)
}

// SignOut revokes the session remotely and always forgets it locally. A
// failed remote revocation is logged; the token expires on its own.
func (b *Boundary) SignOut(ctx context.Context) error {
	b.mu.RLock()
	current := b.current
	b.mu.RUnlock()
	if current == nil {
		b.apply(ctx, nil)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	if err := b.auth.SignOut(callCtx, current.AccessToken); err != nil {
		b.logger.Warn("remote sign out failed", zap.String("user_id", current.UserID), zap.Error(err))
	}
	cancel()

	err := b.cache.Clear()
	b.apply(ctx, nil)
	return err
}

func (b *Boundary) establish(ctx context.Context, s *domain.Session) (*domain.User, error) {
	if s == nil || s.UserID == "" || s.AccessToken == "" {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "identity provider returned no session")
	}
	if s.User == nil {
		s.User = &domain.User{ID: s.UserID}
	}
	if err := b.cache.Save(s); err != nil {
		b.logger.Warn("persisting session failed", zap.Error(err))
	}
	b.apply(ctx, s)
	u := *s.User
	return &u, nil
}

func (b *Boundary) forget() {
	if err := b.cache.Clear(); err != nil {
		b.logger.Warn("clearing persisted session failed", zap.Error(err))
	}
}

func (b *Boundary) setLoading() {
	b.mu.Lock()
	b.state = Loading
	b.mu.Unlock()
}

// apply installs next as the current session and notifies listeners when the
// user id changed.
func (b *Boundary) apply(ctx context.Context, next *domain.Session) {
	b.mu.Lock()
	prevUser := ""
	if b.current != nil {
		prevUser = b.current.UserID
	}
	b.current = next
	nextUser := ""
	if next != nil {
		nextUser = next.UserID
		b.state = SignedIn
	} else {
		b.state = SignedOut
	}
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	if prevUser == nextUser {
		return
	}
	b.logger.Info("session changed", zap.String("from", prevUser), zap.String("to", nextUser))
	for _, l := range listeners {
		l(ctx, prevUser, nextUser)
	}
}

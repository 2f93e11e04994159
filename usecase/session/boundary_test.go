package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/testutil"
)

type change struct{ prev, next string }

type recorder struct {
	mu      sync.Mutex
	changes []change
}

func (r *recorder) listen(_ context.Context, prev, next string) {
	r.mu.Lock()
	r.changes = append(r.changes, change{prev, next})
	r.mu.Unlock()
}

func (r *recorder) all() []change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]change(nil), r.changes...)
}

type fakeTasks struct {
	calls      []string
	refreshErr error
}

func (f *fakeTasks) Begin(owner string) { f.calls = append(f.calls, "begin:"+owner) }
func (f *fakeTasks) Refresh(context.Context) error {
	f.calls = append(f.calls, "refresh")
	return f.refreshErr
}
func (f *fakeTasks) Reset() { f.calls = append(f.calls, "reset") }

func newBoundary() (*Boundary, *testutil.FakeAuthenticator, *testutil.MemoryCache) {
	auth := testutil.NewFakeAuthenticator()
	cache := &testutil.MemoryCache{}
	return New(auth, cache, time.Second, nil), auth, cache
}

func TestBoundary_StartsLoading(t *testing.T) {
	b, _, _ := newBoundary()
	if !b.Loading() {
		t.Fatalf("expected loading, got %s", b.State())
	}
	if _, ok := b.CurrentUser(); ok {
		t.Error("expected no user while loading")
	}
}

func TestBoundary_RestoreEmptyCache(t *testing.T) {
	b, _, _ := newBoundary()
	rec := &recorder{}
	b.OnChange(rec.listen)

	if err := b.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.State() != SignedOut {
		t.Errorf("expected signed out, got %s", b.State())
	}
	if got := rec.all(); len(got) != 0 {
		t.Errorf("expected no change notification, got %+v", got)
	}
}

func TestBoundary_SignInPersistsAndNotifies(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "Ada Lovelace")
	rec := &recorder{}
	b.OnChange(rec.listen)
	_ = b.Restore(context.Background())

	u, err := b.SignIn(context.Background(), " ada@example.com ", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if u.FullName != "Ada Lovelace" {
		t.Errorf("unexpected user: %+v", u)
	}
	id, ok := b.CurrentUser()
	if !ok || id != u.ID {
		t.Errorf("expected current user %q, got %q (%v)", u.ID, id, ok)
	}
	if b.AccessToken() == "" {
		t.Error("expected access token")
	}
	if stored := cache.Stored(); stored == nil || stored.UserID != u.ID {
		t.Errorf("expected session persisted, got %+v", stored)
	}
	want := []change{{"", u.ID}}
	if got := rec.all(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestBoundary_SignInRejected(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	_ = b.Restore(context.Background())

	_, err := b.SignIn(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if b.State() != SignedOut || cache.Stored() != nil {
		t.Error("expected nothing to change after a rejected sign in")
	}
}

func TestBoundary_SignInRequiresFields(t *testing.T) {
	b, auth, _ := newBoundary()
	if _, err := b.SignIn(context.Background(), "", "x"); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if auth.Calls["SignIn"] != 0 {
		t.Error("identity provider must not be called")
	}
}

func TestBoundary_SignUpValidation(t *testing.T) {
	b, auth, _ := newBoundary()
	ctx := context.Background()

	if _, err := b.SignUp(ctx, "not-an-email", "secret1", ""); !domain.IsValidation(err) {
		t.Errorf("expected email validation, got %v", err)
	}
	if _, err := b.SignUp(ctx, "Bob <bob@x.io>", "secret1", ""); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("expected display-name address rejected, got %v", err)
	}
	if _, err := b.SignUp(ctx, "a@example.com", "12345", ""); !domain.IsValidation(err) {
		t.Errorf("expected password validation, got %v", err)
	}
	if auth.Calls["SignUp"] != 0 {
		t.Error("identity provider must not be called")
	}

	u, err := b.SignUp(ctx, "a@example.com", "123456", " Grace ")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if u.FullName != "Grace" {
		t.Errorf("expected trimmed full name, got %q", u.FullName)
	}

	if _, err := b.SignUp(ctx, "a@example.com", "123456", ""); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected email taken, got %v", err)
	}
}

func TestBoundary_SignOutClearsEvenWhenRemoteFails(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	rec := &recorder{}
	b.OnChange(rec.listen)
	u, err := b.SignIn(context.Background(), "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	auth.SignOutErr = testutil.ErrTransport
	if err := b.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if b.State() != SignedOut || b.AccessToken() != "" {
		t.Errorf("expected signed out, got %s", b.State())
	}
	if cache.Stored() != nil {
		t.Error("expected persisted session cleared")
	}
	got := rec.all()
	if len(got) != 2 || got[1] != (change{u.ID, ""}) {
		t.Errorf("unexpected notifications: %+v", got)
	}
}

func TestBoundary_SignOutRevokesToken(t *testing.T) {
	b, auth, _ := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	if _, err := b.SignIn(context.Background(), "ada@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	tok := b.AccessToken()
	if err := b.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if auth.Active(tok) {
		t.Error("expected token revoked")
	}
}

func TestBoundary_RestoreValidSession(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "Ada")
	s, _ := auth.SignIn(context.Background(), "ada@example.com", "secret1")
	s.User = nil
	_ = cache.Save(s)

	if err := b.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if id, ok := b.CurrentUser(); !ok || id != s.UserID {
		t.Errorf("expected restored user %q, got %q", s.UserID, id)
	}
	if u := b.User(); u == nil || u.FullName != "Ada" {
		t.Errorf("expected refreshed profile, got %+v", u)
	}
}

func TestBoundary_RestoreExpiredSession(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	s, _ := auth.SignIn(context.Background(), "ada@example.com", "secret1")
	_ = cache.Save(s)
	b.now = func() time.Time { return s.ExpiresAt.Add(time.Minute) }

	if err := b.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.State() != SignedOut {
		t.Errorf("expected signed out, got %s", b.State())
	}
	if cache.Stored() != nil {
		t.Error("expected expired session discarded")
	}
	if auth.Calls["User"] != 0 {
		t.Error("expired session must not be validated remotely")
	}
}

func TestBoundary_RestoreRevokedSession(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	s, _ := auth.SignIn(context.Background(), "ada@example.com", "secret1")
	_ = cache.Save(s)
	auth.Revoke(s.AccessToken)

	if err := b.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.State() != SignedOut || cache.Stored() != nil {
		t.Error("expected revoked session discarded")
	}
}

func TestBoundary_RestoreTransportFailureKeepsCache(t *testing.T) {
	b, auth, cache := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	s, _ := auth.SignIn(context.Background(), "ada@example.com", "secret1")
	_ = cache.Save(s)
	auth.UserErr = testutil.ErrTransport

	if err := b.Restore(context.Background()); !errors.Is(err, testutil.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if b.State() != SignedOut {
		t.Errorf("expected signed out, got %s", b.State())
	}
	if cache.Stored() == nil {
		t.Error("expected persisted session kept for a later retry")
	}
}

func TestBoundary_BindDrivesTaskSession(t *testing.T) {
	b, auth, _ := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	auth.Register("bob@example.com", "secret2", "")
	tasks := &fakeTasks{}
	b.Bind(tasks)
	ctx := context.Background()

	ada, _ := b.SignIn(ctx, "ada@example.com", "secret1")
	bob, _ := b.SignIn(ctx, "bob@example.com", "secret2")
	_ = b.SignOut(ctx)

	want := []string{"begin:" + ada.ID, "refresh", "reset", "begin:" + bob.ID, "refresh", "reset"}
	if len(tasks.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, tasks.calls)
	}
	for i := range want {
		if tasks.calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tasks.calls)
		}
	}
}

func TestBoundary_BindSameUserDoesNotReload(t *testing.T) {
	b, auth, _ := newBoundary()
	auth.Register("ada@example.com", "secret1", "")
	tasks := &fakeTasks{}
	b.Bind(tasks)
	ctx := context.Background()

	_, _ = b.SignIn(ctx, "ada@example.com", "secret1")
	_, _ = b.SignIn(ctx, "ada@example.com", "secret1")

	if len(tasks.calls) != 2 {
		t.Errorf("expected a single load for the same user, got %v", tasks.calls)
	}
}

package router_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/testutil"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/token"
	"github.com/fastygo/taskflow/repository/rest"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	profileUC "github.com/fastygo/taskflow/usecase/profile"
	"github.com/fastygo/taskflow/usecase/taskstore"
)

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type tokenHolder struct{ token string }

func (h *tokenHolder) AccessToken() string { return h.token }

type stack struct {
	cfg   rest.Config
	store *testutil.FakeTaskStore
	auth  *rest.AuthClient
}

func newStack(t *testing.T) *stack {
	t.Helper()
	users := testutil.NewFakeUserRepository()
	sessions := testutil.NewFakeSessionRepository()
	store := testutil.NewFakeTaskStore()

	authUseCase := authUC.New(users, sessions, token.NewIssuer("secret", "taskflow"), time.Hour, nil).WithHashCost(bcrypt.MinCost)
	adapter := httpcontext.NewAdapter(time.Second)
	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(users, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskstore.New(store, time.Second, nil), adapter, nil),
		Health: apiHandler.NewHealthHandler(staticStatus{
			Services: map[string]bool{"postgresql": true, "redis": true},
		}, adapter, nil),
	}
	r := router.New(handlers, middleware.JWTAuth(authUseCase, time.Second, nil))

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, r.Handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	cfg := rest.Config{
		BaseURL: "http://taskflow.test",
		Timeout: time.Second,
		Dial:    func(string) (net.Conn, error) { return ln.Dial() },
	}
	return &stack{cfg: cfg, store: store, auth: rest.NewAuthClient(cfg, nil)}
}

func (s *stack) signUp(t *testing.T, email string) (*domain.Session, *rest.TaskClient) {
	t.Helper()
	session, err := s.auth.SignUp(context.Background(), email, "secret1", "")
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return session, rest.NewTaskClient(s.cfg, &tokenHolder{token: session.AccessToken}, nil)
}

func TestRouter_AuthFlow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	session, err := s.auth.SignUp(ctx, "ada@example.com", "secret1", "Ada Lovelace")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if session.UserID == "" || session.ID == "" || session.ExpiresAt.IsZero() {
		t.Fatalf("incomplete session: %+v", session)
	}
	if session.User.FullName != "Ada Lovelace" {
		t.Errorf("expected full name in token response, got %+v", session.User)
	}

	if _, err := s.auth.SignUp(ctx, "ada@example.com", "secret1", ""); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected email taken, got %v", err)
	}
	if _, err := s.auth.SignIn(ctx, "ada@example.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}

	signedIn, err := s.auth.SignIn(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	u, err := s.auth.User(ctx, signedIn.AccessToken)
	if err != nil || u.ID != session.UserID {
		t.Fatalf("user: %+v %v", u, err)
	}

	renamed, err := s.auth.UpdateFullName(ctx, signedIn.AccessToken, "Countess")
	if err != nil || renamed.FullName != "Countess" {
		t.Fatalf("update: %+v %v", renamed, err)
	}

	if err := s.auth.SignOut(ctx, signedIn.AccessToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := s.auth.User(ctx, signedIn.AccessToken); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("expected revoked token rejected, got %v", err)
	}
	if _, err := s.auth.User(ctx, session.AccessToken); err != nil {
		t.Errorf("other sessions must survive sign out: %v", err)
	}
}

func TestRouter_TaskLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	session, client := s.signUp(t, "ada@example.com")
	owner := session.UserID

	due := time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC)
	created, err := client.Create(ctx, owner, "Buy milk", &due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != owner || created.Title != "Buy milk" || created.Deadline == nil || !created.Deadline.Equal(due) {
		t.Fatalf("unexpected row: %+v", created)
	}

	done := true
	updated, err := client.Update(ctx, owner, created.ID, domain.TaskPatch{Completed: &done, ClearDeadline: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Deadline != nil {
		t.Errorf("unexpected update: %+v", updated)
	}

	second, _ := client.Create(ctx, owner, "Walk", nil)
	tasks, err := client.List(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID {
		t.Errorf("expected newest first, got %+v", tasks)
	}

	if err := client.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.Delete(ctx, owner, created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestRouter_OwnerIsolation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice, aliceClient := s.signUp(t, "alice@example.com")
	bob, bobClient := s.signUp(t, "bob@example.com")

	task, err := aliceClient.Create(ctx, alice.UserID, "private", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Bob asking for Alice's rows sees nothing.
	rows, err := bobClient.List(ctx, alice.UserID)
	if err != nil || len(rows) != 0 {
		t.Errorf("expected no rows, got %+v / %v", rows, err)
	}

	title := "hijacked"
	if _, err := bobClient.Update(ctx, bob.UserID, task.ID, domain.TaskPatch{Title: &title}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := bobClient.Delete(ctx, alice.UserID, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := bobClient.Create(ctx, alice.UserID, "spoofed", nil); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}

	rows, _ = aliceClient.List(ctx, alice.UserID)
	if len(rows) != 1 || rows[0].Title != "private" {
		t.Errorf("alice's task must be untouched, got %+v", rows)
	}
}

func TestRouter_Validation(t *testing.T) {
	s := newStack(t)
	session, client := s.signUp(t, "ada@example.com")

	if _, err := client.Create(context.Background(), session.UserID, "   ", nil); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if s.store.CallCount("create") != 0 {
		t.Error("blank titles must not reach the store")
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newStack(t)
	anon := rest.NewTaskClient(s.cfg, &tokenHolder{}, nil)
	if _, err := anon.List(context.Background(), "someone"); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestRouter_Health(t *testing.T) {
	s := newStack(t)
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.cfg.BaseURL + "/health")
	client := &fasthttp.Client{Dial: s.cfg.Dial}
	if err := client.DoTimeout(req, resp, time.Second); err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Errorf("expected 200, got %d: %s", resp.StatusCode(), resp.Body())
	}
}

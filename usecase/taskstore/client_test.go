package taskstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/testutil"
	"github.com/fastygo/taskflow/usecase/taskstore"
)

func newClient() (*taskstore.Client, *testutil.FakeTaskStore) {
	store := testutil.NewFakeTaskStore()
	return taskstore.New(store, time.Second, nil), store
}

func TestCreate_RejectsBlankTitleWithoutStoreCall(t *testing.T) {
	client, store := newClient()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := client.Create(context.Background(), "alice", title, nil)
		if !domain.IsValidation(err) {
			t.Errorf("title %q: expected validation error, got %v", title, err)
		}
	}
	if store.TotalCalls() != 0 {
		t.Errorf("expected no store calls, got %d", store.TotalCalls())
	}
}

func TestCreate_TrimsTitleAndUsesStoreRecord(t *testing.T) {
	client, _ := newClient()

	task, err := client.Create(context.Background(), "alice", "  Buy milk  ", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("expected trimmed title, got %q", task.Title)
	}
	if task.ID == "" || task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Errorf("expected store-assigned id and timestamps, got %+v", task)
	}
	if task.Completed {
		t.Error("expected new task to be incomplete")
	}
	if task.UserID != "alice" {
		t.Errorf("expected owner alice, got %q", task.UserID)
	}
}

func TestList_EmptyOwnerHasNoTasks(t *testing.T) {
	client, _ := newClient()

	tasks, err := client.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestList_IsolatedAndOrdered(t *testing.T) {
	client, store := newClient()
	store.Seed("alice", "first")
	store.Seed("bob", "bob's")
	store.Seed("alice", "second")

	tasks, err := client.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.UserID != "alice" {
			t.Errorf("foreign task leaked: %+v", task)
		}
	}
	if tasks[0].Title != "second" || tasks[1].Title != "first" {
		t.Errorf("expected newest first, got %q, %q", tasks[0].Title, tasks[1].Title)
	}
}

func TestList_TransportFailureIsStoreError(t *testing.T) {
	client, store := newClient()
	store.ListErr = testutil.ErrTransport

	_, err := client.List(context.Background(), "alice")
	if !domain.IsStoreError(err) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !errors.Is(err, testutil.ErrTransport) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

func TestPermissionFailureIsStoreError(t *testing.T) {
	client, store := newClient()
	store.CreateErr = domain.NewError(domain.ErrCodeForbidden, "row level security")

	_, err := client.Create(context.Background(), "alice", "x", nil)
	if !domain.IsStoreError(err) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRemoteRejectionIsStoreError(t *testing.T) {
	client, store := newClient()
	rejected := domain.NewError(domain.ErrCodeInvalid, "violates check constraint")
	store.CreateErr = rejected

	_, err := client.Create(context.Background(), "alice", "x", nil)
	if !domain.IsStoreError(err) || domain.IsValidation(err) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !errors.Is(err, rejected) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if store.CallCount("create") != 1 {
		t.Errorf("expected one store call, got %d", store.CallCount("create"))
	}
}

func TestUpdateAndDelete_ForeignIDIsNotFound(t *testing.T) {
	client, store := newClient()
	bobs := store.Seed("bob", "private")

	done := true
	_, err := client.Update(context.Background(), "alice", bobs.ID, domain.TaskPatch{Completed: &done})
	if !domain.IsNotFound(err) {
		t.Errorf("update: expected not found, got %v", err)
	}
	if err := client.Delete(context.Background(), "alice", bobs.ID); !domain.IsNotFound(err) {
		t.Errorf("delete: expected not found, got %v", err)
	}

	rows := store.Rows()
	if len(rows) != 1 || rows[0].Completed {
		t.Errorf("bob's task must be untouched, got %+v", rows)
	}
}

func TestDelete_MissingIDIsNotFound(t *testing.T) {
	client, _ := newClient()
	if err := client.Delete(context.Background(), "alice", "task-404"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdate_ValidatesTitle(t *testing.T) {
	client, store := newClient()
	task := store.Seed("alice", "keep")

	blank := "  "
	if _, err := client.Update(context.Background(), "alice", task.ID, domain.TaskPatch{Title: &blank}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.CallCount("update") != 0 {
		t.Errorf("expected no update call, got %d", store.CallCount("update"))
	}
}

func TestMissingOwner_NoStoreCall(t *testing.T) {
	client, store := newClient()

	if _, err := client.List(context.Background(), ""); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("list: expected unauthorized, got %v", err)
	}
	if _, err := client.Create(context.Background(), "", "x", nil); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("create: expected unauthorized, got %v", err)
	}
	if store.TotalCalls() != 0 {
		t.Errorf("expected no store calls, got %d", store.TotalCalls())
	}
}

type slowStore struct {
	*testutil.FakeTaskStore
}

func (s slowStore) List(ctx context.Context, owner string) ([]domain.Task, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestList_BoundedTimeout(t *testing.T) {
	client := taskstore.New(slowStore{testutil.NewFakeTaskStore()}, 20*time.Millisecond, nil)

	_, err := client.List(context.Background(), "alice")
	if !domain.IsStoreError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout store error, got %v", err)
	}
}

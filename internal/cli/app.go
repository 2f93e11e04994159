package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/boltstore"
	"github.com/fastygo/taskflow/pkg/deadline"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/repository/rest"
	"github.com/fastygo/taskflow/usecase/session"
	"github.com/fastygo/taskflow/usecase/task"
	"github.com/fastygo/taskflow/usecase/taskstore"
)

var errNotSignedIn = domain.NewError(domain.ErrCodeUnauthorized, "not signed in, run `taskflow login` first")

// ProfileUpdater changes the signed-in user's display name.
type ProfileUpdater interface {
	UpdateFullName(ctx context.Context, accessToken, fullName string) (*domain.User, error)
}

// App holds everything a command needs.
type App struct {
	Config   config.ClientConfig
	Logger   *zap.Logger
	Session  *session.Boundary
	Tasks    *task.Manager
	Profiles ProfileUpdater
	Clock    deadline.Clock
	Location *time.Location

	restoreErr error
	closers    []func() error
}

// Factory builds the App for a command invocation.
type Factory func(cfg *config.Config, stderr io.Writer) (*App, error)

// NewApp wires the CLI against the configured backend, keeping the session
// in a bbolt file between runs.
func NewApp(cfg *config.Config, stderr io.Writer) (*App, error) {
	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: "console",
		Output:   stderr,
	})
	if err != nil {
		return nil, err
	}

	store, err := boltstore.Open(cfg.Client.SessionPath, "taskflow")
	if err != nil {
		return nil, fmt.Errorf("open session file %s: %w", cfg.Client.SessionPath, err)
	}

	restCfg := rest.Config{
		BaseURL: cfg.Client.BaseURL,
		APIKey:  cfg.Client.AnonKey,
		Timeout: cfg.Client.RequestTimeout,
	}
	auth := rest.NewAuthClient(restCfg, log)
	boundary := session.New(auth, boltstore.NewSessionCache(store), cfg.Client.RequestTimeout, log)
	client := taskstore.New(rest.NewTaskClient(restCfg, boundary, log), cfg.Client.RequestTimeout, log)

	app := &App{
		Config:   cfg.Client,
		Logger:   log,
		Session:  boundary,
		Tasks:    task.NewManager(client, log),
		Profiles: auth,
		Clock:    time.Now,
		Location: time.Local,
	}
	app.closers = append(app.closers, store.Close, func() error {
		_ = log.Sync()
		return nil
	})
	return app, nil
}

// Start binds the task list to the session and restores a persisted login.
func (a *App) Start(ctx context.Context) {
	a.Session.Bind(a.Tasks)
	if err := a.Session.Restore(ctx); err != nil {
		a.restoreErr = err
		a.Logger.Debug("session restore failed", zap.Error(err))
	}
}

// requireTasks fails unless a user is signed in and the list loaded.
func (a *App) requireTasks() error {
	if _, ok := a.Session.CurrentUser(); !ok {
		if a.restoreErr != nil {
			return fmt.Errorf("could not restore session: %w", a.restoreErr)
		}
		return errNotSignedIn
	}
	if a.Tasks.State() == task.LoadFailed {
		return fmt.Errorf("could not load tasks: %w", a.Tasks.Err())
	}
	return nil
}

// resolve finds a task by id or unique id prefix.
func (a *App) resolve(ref string) (domain.Task, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := a.Tasks.Find(ref); ok {
		return t, nil
	}
	var matches []domain.Task
	for _, t := range a.Tasks.Tasks() {
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Task{}, domain.ErrTaskNotFound
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("task id %q is ambiguous", ref))
	}
}

func (a *App) view(t domain.Task) task.View {
	return task.View{Task: t, Remaining: deadline.Classify(t.Deadline, a.Clock().In(a.Location))}
}

// Close releases the session file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func defaultFactory(cfg *config.Config, stderr io.Writer) (*App, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	return NewApp(cfg, stderr)
}

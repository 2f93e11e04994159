package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/pkg/deadline"
	"github.com/fastygo/taskflow/usecase/task"
)

// TaskSource is the part of the task manager the reminder reads.
type TaskSource interface {
	Refresh(ctx context.Context) error
	Views(now time.Time) []task.View
}

// Alert is raised when an open task becomes more urgent.
type Alert struct {
	Task     task.View
	Previous deadline.Urgency
}

// ReminderConfig controls how often deadlines are re-evaluated.
type ReminderConfig struct {
	// Schedule is a cron expression such as "@every 1m" or "0 9 * * *".
	Schedule string
	// Timeout bounds each refresh.
	Timeout time.Duration
	// Threshold is the lowest urgency worth reporting.
	Threshold deadline.Urgency
}

// Reminder reloads the task list on a cron schedule, re-classifies every
// deadline and reports tasks whose urgency rose to or past the threshold.
type Reminder struct {
	source TaskSource
	notify func(Alert)
	clock  deadline.Clock
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ReminderConfig

	mu   sync.Mutex
	seen map[string]deadline.Urgency
}

func NewReminder(source TaskSource, notify func(Alert), clock deadline.Clock, logger *zap.Logger, cfg ReminderConfig) (*Reminder, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Threshold == deadline.UrgencyNone {
		cfg.Threshold = deadline.UrgencyHigh
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reminder{
		source: source,
		notify: notify,
		clock:  clock,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(),
		seen:   make(map[string]deadline.Urgency),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if _, err := r.Check(ctx); err != nil {
			r.logger.Warn("deadline check failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// Start launches the cron scheduler.
func (r *Reminder) Start() {
	r.cron.Start()
	r.logger.Info("deadline reminder started", zap.String("schedule", r.cfg.Schedule))
}

// Stop waits for a running check to finish or ctx to expire.
func (r *Reminder) Stop(ctx context.Context) {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("deadline reminder stopped")
}

// Check refreshes the list and raises alerts synchronously. A failed refresh
// still evaluates the last known list, since the clock alone can make a task
// overdue.
func (r *Reminder) Check(ctx context.Context) ([]Alert, error) {
	refreshErr := r.source.Refresh(ctx)
	if refreshErr != nil {
		r.logger.Warn("task refresh failed, using last known list", zap.Error(refreshErr))
	}

	views := r.source.Views(r.clock())

	r.mu.Lock()
	var alerts []Alert
	current := make(map[string]deadline.Urgency, len(views))
	for _, v := range views {
		if v.Completed || v.Deadline == nil {
			continue
		}
		urgency := v.Remaining.Urgency
		current[v.ID] = urgency
		prev := r.seen[v.ID]
		if urgency > prev && urgency >= r.cfg.Threshold {
			alerts = append(alerts, Alert{Task: v, Previous: prev})
		}
	}
	r.seen = current
	r.mu.Unlock()

	if r.notify != nil {
		for _, a := range alerts {
			r.notify(a)
		}
	}
	return alerts, refreshErr
}

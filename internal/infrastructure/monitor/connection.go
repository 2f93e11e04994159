package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Check probes one dependency.
type Check struct {
	Name    string
	Timeout time.Duration
	Ping    func(ctx context.Context) error
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgresql", Timeout: 3 * time.Second, Ping: func(ctx context.Context) error {
		return pool.Ping(ctx)
	}}
}

// RedisCheck pings the session registry.
func RedisCheck(client *redislib.Client) Check {
	return Check{Name: "redis", Timeout: 2 * time.Second, Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

type Monitor struct {
	checks []Check

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(checks []Check, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and records the result.
func (m *Monitor) Refresh() {
	services := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		services[c.Name] = m.run(c)
	}

	m.mu.Lock()
	prev := m.status
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()

	for name, ok := range services {
		if was, seen := prev.Services[name]; seen && was != ok {
			m.logger.Warn("dependency state changed", zap.String("service", name), zap.Bool("online", ok))
		}
	}
}

func (m *Monitor) run(c Check) bool {
	if c.Ping == nil {
		return false
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("service", c.Name), zap.Error(err))
		return false
	}
	return true
}

// Package postgres persists player progression (currency, unlocked skills
// and best clear times) in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Pool owns the connection pool behind the progression store.
type Pool struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPool connects to PostgreSQL, retrying the initial ping with a linear
// backoff while the database finishes starting.
//
// Precondition: cfg must contain valid database connection parameters; logger must not be nil.
// Postcondition: Returns a Pool whose database answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			pool.Close()
			return nil, fmt.Errorf("pinging database after %d attempts: %w", attempt, err)
		}
		logger.Warn("database not ready",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	return &Pool{pool: pool, logger: logger}, nil
}

// Progress returns the progression repository backed by this pool.
func (p *Pool) Progress() *ProgressRepository {
	return NewProgressRepository(p.pool)
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// Monitor pings the database on a fixed interval for as long as it runs and
// closes the pool when stopped. It satisfies the server lifecycle's service
// contract.
type Monitor struct {
	pool     *Pool
	interval time.Duration
	quit     chan struct{}
	once     sync.Once

	mu       sync.Mutex
	failures int
}

// Monitor creates a health monitor for p.
//
// Precondition: interval > 0.
func (p *Pool) Monitor(interval time.Duration) *Monitor {
	return &Monitor{pool: p, interval: interval, quit: make(chan struct{})}
}

// Start blocks, checking health every interval until Stop is called.
// A failed check is logged and counted; it never ends the loop.
func (m *Monitor) Start() error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return nil
		case <-ticker.C:
			if err := m.pool.Health(context.Background(), m.interval); err != nil {
				m.mu.Lock()
				m.failures++
				n := m.failures
				m.mu.Unlock()
				m.pool.logger.Warn("database health check failed",
					zap.Int("consecutive", n),
					zap.Error(err),
				)
				continue
			}
			m.mu.Lock()
			if m.failures > 0 {
				m.pool.logger.Info("database health restored", zap.Int("after_failures", m.failures))
			}
			m.failures = 0
			m.mu.Unlock()
		}
	}
}

// Failures returns the number of consecutive failed health checks.
func (m *Monitor) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// Stop ends the monitor loop and closes the pool. It is safe to call more
// than once.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		close(m.quit)
		m.pool.Close()
	})
}

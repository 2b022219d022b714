package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPool is the subset of *pgxpool.Pool the checker needs.
type PostgresPool interface {
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
}

// PostgresCheckerConfig configures a PostgreSQL connectivity checker.
type PostgresCheckerConfig struct {
	// SaturationThreshold is the acquired/max connection ratio above which
	// the pool is reported as degraded. Default: 0.8.
	SaturationThreshold float64
}

// PostgresChecker verifies database connectivity with a lightweight ping and
// inspects connection-pool saturation.
type PostgresChecker struct {
	name   string
	pool   PostgresPool
	config PostgresCheckerConfig
}

// NewPostgresChecker creates a new PostgreSQL checker backed by a pgx pool.
func NewPostgresChecker(name string, pool PostgresPool, config PostgresCheckerConfig) *PostgresChecker {
	if config.SaturationThreshold <= 0 || config.SaturationThreshold >= 1 {
		config.SaturationThreshold = 0.8
	}
	return &PostgresChecker{name: name, pool: pool, config: config}
}

// Name returns the name of this checker.
func (p *PostgresChecker) Name() string {
	return p.name
}

// Check pings the database and inspects pool statistics.
func (p *PostgresChecker) Check(ctx context.Context) Result {
	if p.pool == nil {
		return Unhealthy("database pool not configured", ErrNilTarget)
	}

	if err := p.pool.Ping(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Unhealthy("database ping timeout", ErrCheckTimeout)
		}
		return Unhealthy("database connection failed", err)
	}

	stat := p.pool.Stat()
	if stat == nil {
		return Healthy("database reachable")
	}

	details := map[string]any{
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"total_conns":    stat.TotalConns(),
		"max_conns":      stat.MaxConns(),
	}

	if stat.MaxConns() > 0 {
		saturation := float64(stat.AcquiredConns()) / float64(stat.MaxConns())
		details["saturation"] = saturation
		if saturation >= p.config.SaturationThreshold {
			return Degraded(
				fmt.Sprintf("connection pool near capacity: %.0f%%", saturation*100),
			).WithDetails(details)
		}
	}

	return Healthy("database reachable").WithDetails(details)
}

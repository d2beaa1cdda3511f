package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus describes the outcome of a connectivity check against the
// review database.
type HealthStatus struct {
	Healthy       bool
	Latency       time.Duration
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	Error         error
}

// Ping reports whether the review database answers at all.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	return pool.Ping(ctx)
}

// Check pings the database and collects pool statistics. It never returns
// an error; failures are carried in the status so the health command can
// render them.
func Check(ctx context.Context, pool *pgxpool.Pool) *HealthStatus {
	status := &HealthStatus{}

	if pool == nil {
		status.Error = fmt.Errorf("pool is nil")
		return status
	}

	start := time.Now()
	err := Ping(ctx, pool)
	status.Latency = time.Since(start)

	if err != nil {
		status.Error = fmt.Errorf("ping failed: %w", err)
		return status
	}

	stats := pool.Stat()
	status.Healthy = true
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.AcquiredConns = stats.AcquiredConns()

	return status
}

// WaitForReady polls the database at pollInterval until a ping succeeds or
// the context is cancelled. Rides out a database restart between connecting
// and checking.
func WaitForReady(ctx context.Context, pool *pgxpool.Pool, pollInterval time.Duration) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}

	if err := Ping(ctx, pool); err == nil {
		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := Ping(ctx, pool); err == nil {
				return nil
			}
		}
	}
}

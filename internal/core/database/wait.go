package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitForDB blocks until the database answers a ping, retrying every delay up
// to attempts times. It returns the last ping error when the budget runs out.
func WaitForDB(ctx context.Context, db Pinger, attempts int, delay time.Duration, l *zap.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			l.Info("database available", zap.Int("attempt", i))
			return nil
		}
		if i == attempts {
			break
		}
		l.Warn("database unavailable, waiting",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, err)
}

package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by stores that can check connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForStore pings the store until it answers or maxRetries is exhausted.
func WaitForStore(ctx context.Context, store Pinger, maxRetries int, backoff time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempt := 0
	err := withRetry(ctx, maxRetries, backoff, func(ctx context.Context) error {
		attempt++
		err := store.Ping(ctx)
		if err != nil {
			logger.Warn("store not ready", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("store unreachable after %d attempts: %w", attempt, err)
	}
	return nil
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

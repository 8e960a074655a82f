package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"
)

type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	ReadOnly       bool
	MaxRetries     int
}

func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		ReadOnly:       false,
		MaxRetries:     3,
	}
}

// WithTransaction runs fn inside a single transaction: commit on nil,
// rollback on error. All multi-step writes (checkout in particular) must go
// through here so a failure never leaves partial state behind.
func WithTransaction(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
		ReadOnly:  opts.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// WithRetry is WithTransaction plus automatic retry of serialization
// failures, deadlocks and lock timeouts, with exponential backoff and jitter.
// Permanent errors (constraint violations, domain errors) return immediately.
func WithRetry(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	var lastErr error
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tx, err := db.BeginTx(ctx, &sql.TxOptions{
			Isolation: opts.IsolationLevel,
			ReadOnly:  opts.ReadOnly,
		})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		err = fn(tx)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}

			if !IsRetryable(err) {
				return err
			}

			if attempt == opts.MaxRetries {
				return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
			}

			lastErr = err
			if err := sleepBackoff(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		if err := tx.Commit(); err != nil {
			if !IsRetryable(err) {
				return fmt.Errorf("commit transaction: %w", err)
			}

			if attempt == opts.MaxRetries {
				return fmt.Errorf("max retries (%d) exceeded on commit: %w", opts.MaxRetries, err)
			}

			lastErr = err
			if err := sleepBackoff(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		return nil
	}

	return lastErr
}

func sleepBackoff(ctx context.Context, backoff time.Duration) error {
	jitter := time.Duration(rand.Int63n(int64(backoff / 4)))

	select {
	case <-time.After(backoff + jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

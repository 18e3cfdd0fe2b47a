// ABOUTME: Store decorator adding per-call timeouts and retry with backoff
// ABOUTME: NotFound, invalid keys and caller cancellation are never retried
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/util"
)

// Options configures Resilient
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Resilient wraps a Store so every call is bounded and transient failures are retried
type Resilient struct {
	inner Store
	opts  Options
}

// NewResilient wraps inner
func NewResilient(inner Store, opts Options) *Resilient {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Resilient{inner: inner, opts: opts}
}

// Inner returns the wrapped backend
func (r *Resilient) Inner() Store {
	return r.inner
}

// Close closes the wrapped backend when it holds resources
func (r *Resilient) Close() error {
	if c, ok := r.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *Resilient) Put(ctx context.Context, container, key string, data []byte) error {
	return r.do(ctx, "put", func(ctx context.Context) error {
		return r.inner.Put(ctx, container, key, data)
	})
}

func (r *Resilient) Get(ctx context.Context, container, key string) ([]byte, error) {
	var out []byte
	err := r.do(ctx, "get", func(ctx context.Context) error {
		data, err := r.inner.Get(ctx, container, key)
		out = data
		return err
	})
	return out, err
}

func (r *Resilient) Delete(ctx context.Context, container, key string) error {
	return r.do(ctx, "delete", func(ctx context.Context) error {
		return r.inner.Delete(ctx, container, key)
	})
}

// List bounds the whole listing by one timeout. Partial listings are not retried.
func (r *Resilient) List(ctx context.Context, container, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		callCtx, cancel := r.withTimeout(ctx)
		defer cancel()
		for key, err := range r.inner.List(callCtx, container, prefix) {
			if err != nil {
				yield("", r.classify(ctx, err))
				return
			}
			if !yield(key, nil) {
				return
			}
		}
	}
}

func (r *Resilient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.Timeout)
}

// classify turns a deadline hit by our own timeout into ErrTimeout
func (r *Resilient) classify(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, r.opts.Timeout, err)
	}
	return err
}

func (r *Resilient) do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(r.opts.RetryDelay, attempt)); err != nil {
				return err
			}
		}

		callCtx, cancel := r.withTimeout(ctx)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = r.classify(ctx, err)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
			return err
		}

		lastErr = err
		r.opts.Logger.Warn("blob store call failed", "op", op, "attempt", attempt+1, "error", err)
	}
	return lastErr
}

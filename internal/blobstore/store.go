// ABOUTME: KeyBlobStore interface and shared errors for all blob backends
// ABOUTME: Keys are namespaced by container; writes are last-writer-wins
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned by Get and Delete for a missing key
	ErrNotFound = errors.New("blob not found")
	// ErrTimeout is returned when a store call exceeds its deadline
	ErrTimeout = errors.New("blob store call timed out")
	// ErrInvalidKey is returned for empty or malformed containers and keys
	ErrInvalidKey = errors.New("invalid container or key")
)

// Store is a keyed binary store
type Store interface {
	// Put stores data under key, replacing any previous value
	Put(ctx context.Context, container, key string, data []byte) error
	// Get returns the bytes stored under key or ErrNotFound
	Get(ctx context.Context, container, key string) ([]byte, error)
	// List yields the keys in container starting with prefix, in a finite sequence.
	// A non-nil error ends the sequence.
	List(ctx context.Context, container, prefix string) iter.Seq2[string, error]
	// Delete removes key or returns ErrNotFound
	Delete(ctx context.Context, container, key string) error
}

// Collect drains a List sequence into a slice
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var keys []string
	for key, err := range seq {
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func validateContainer(container string) error {
	if strings.TrimSpace(container) == "" {
		return fmt.Errorf("%w: container name is required", ErrInvalidKey)
	}
	if strings.Contains(container, "/") {
		return fmt.Errorf("%w: container %q must not contain '/'", ErrInvalidKey, container)
	}
	return nil
}

func validate(container, key string) error {
	if err := validateContainer(container); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidKey)
	}
	return nil
}

// fail is a one-element sequence carrying err
func fail(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}

// deferred calls load when the sequence is ranged, not when it is built,
// then yields the loaded keys in order
func deferred(ctx context.Context, load func(context.Context) ([]string, error)) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		keys, err := load(ctx)
		if err != nil {
			yield("", err)
			return
		}
		each(ctx, keys)(yield)
	}
}

// each yields keys in order, stopping early on ctx cancellation
func each(ctx context.Context, keys []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}

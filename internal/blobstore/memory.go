// ABOUTME: In-process blob backend for tests and local runs
// ABOUTME: Values are copied on the way in and out so callers cannot alias them
package blobstore

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Memory is a Store kept in process memory
type Memory struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{containers: make(map[string]map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.containers[container]
	if !ok {
		c = make(map[string][]byte)
		m.containers[container] = c
	}
	c[key] = slices.Clone(data)
	return nil
}

func (m *Memory) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validate(container, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.containers[container][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *Memory) List(ctx context.Context, container, prefix string) iter.Seq2[string, error] {
	if err := validateContainer(container); err != nil {
		return fail(err)
	}
	return deferred(ctx, func(context.Context) ([]string, error) {
		m.mu.RLock()
		var keys []string
		for k := range m.containers[container] {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		m.mu.RUnlock()
		slices.Sort(keys)
		return keys, nil
	})
}

func (m *Memory) Delete(ctx context.Context, container, key string) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container][key]; !ok {
		return ErrNotFound
	}
	delete(m.containers[container], key)
	return nil
}

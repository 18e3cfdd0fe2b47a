// ABOUTME: Charm KV blob backend with cloud sync over SSH key auth
// ABOUTME: Keys are stored as container/key in a single charm database
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// CharmConfig holds charm backend configuration
type CharmConfig struct {
	Host     string
	DBName   string
	AutoSync bool
}

// Charm is a Store on top of charm kv
type Charm struct {
	kv     *kv.KV
	config CharmConfig
	mu     sync.Mutex
}

// OpenCharm opens the charm database named in cfg
func OpenCharm(cfg CharmConfig) (*Charm, error) {
	// charm reads its server from the environment
	if cfg.Host != "" {
		if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
			return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
		}
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Charm{kv: db, config: cfg}

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return c, nil
}

// Close closes the KV database
func (c *Charm) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

func charmKey(container, key string) []byte {
	return []byte(container + "/" + key)
}

// syncIfEnabled pushes to the cloud after writes
func (c *Charm) syncIfEnabled() {
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
}

func (c *Charm) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(charmKey(container, key), data); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", container, key, err)
	}
	c.syncIfEnabled()
	return nil
}

func (c *Charm) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validate(container, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(container, key)
}

func (c *Charm) get(container, key string) ([]byte, error) {
	data, err := c.kv.Get(charmKey(container, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", container, key, err)
	}
	return data, nil
}

func (c *Charm) List(ctx context.Context, container, prefix string) iter.Seq2[string, error] {
	if err := validateContainer(container); err != nil {
		return fail(err)
	}
	return deferred(ctx, func(context.Context) ([]string, error) {
		c.mu.Lock()
		all, err := c.kv.Keys()
		c.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}

		full := container + "/" + prefix
		var keys []string
		for _, k := range all {
			ks := string(k)
			if strings.HasPrefix(ks, full) {
				keys = append(keys, strings.TrimPrefix(ks, container+"/"))
			}
		}
		slices.Sort(keys)
		return keys, nil
	})
}

// Delete checks for the key first since charm deletes of missing keys succeed
func (c *Charm) Delete(ctx context.Context, container, key string) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.get(container, key); err != nil {
		return err
	}
	if err := c.kv.Delete(charmKey(container, key)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", container, key, err)
	}
	c.syncIfEnabled()
	return nil
}

// Sync manually triggers a sync with the cloud
func (c *Charm) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Reset wipes all local data
func (c *Charm) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// ID returns the charm user ID
func (c *Charm) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// AuthorizedKeys returns the list of linked devices/keys
func (c *Charm) AuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/storeschema-mcp/internal/config"
)

// ErrUnknownStore is returned for a name that is not in the catalog.
var ErrUnknownStore = errors.New("unknown store")

// OpenFunc opens one catalog entry.
type OpenFunc func(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error)

// Registry opens catalog stores on first use and keeps them open until
// Close. It is safe for concurrent use.
type Registry struct {
	configs []config.StoreConfig
	opts    Options
	open    OpenFunc

	mu     sync.Mutex
	stores map[string]Store
	group  singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOpenFunc replaces Open, e.g. with in-memory stores.
func WithOpenFunc(fn OpenFunc) RegistryOption {
	return func(r *Registry) { r.open = fn }
}

// NewRegistry creates a registry over a validated catalog.
func NewRegistry(configs []config.StoreConfig, opts Options, ropts ...RegistryOption) *Registry {
	r := &Registry{
		configs: configs,
		opts:    opts,
		open:    Open,
		stores:  make(map[string]Store),
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Configs returns the catalog in file order.
func (r *Registry) Configs() []config.StoreConfig {
	return r.configs
}

// Config returns the catalog entry for name.
func (r *Registry) Config(name string) (config.StoreConfig, bool) {
	for _, c := range r.configs {
		if c.Name == name {
			return c, true
		}
	}
	return config.StoreConfig{}, false
}

// Get returns the open store for name, connecting on first use. Concurrent
// first uses share one connection attempt; a failed attempt is retried on
// the next call. The attempt is not tied to any one caller's ctx and is
// bounded by ConnectTimeout; each caller stops waiting when its ctx is done.
func (r *Registry) Get(ctx context.Context, name string) (Store, error) {
	cfg, ok := r.Config(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}

	r.mu.Lock()
	s, ok := r.stores[name]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	openCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (any, error) {
		r.mu.Lock()
		if s, ok := r.stores[name]; ok {
			r.mu.Unlock()
			return s, nil
		}
		r.mu.Unlock()

		s, err := r.open(openCtx, cfg, r.opts)
		if err != nil {
			return nil, err
		}
		slog.Info("store opened",
			slog.String("store", name),
			slog.String("kind", string(cfg.Kind)),
		)

		r.mu.Lock()
		r.stores[name] = s
		r.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("opening store %q: %w", name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Store), nil
	}
}

// Close closes every open store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, s := range r.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store %q: %w", name, err))
		}
		delete(r.stores, name)
	}
	return errors.Join(errs...)
}

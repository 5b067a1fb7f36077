package tools

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usestring/storeschema-mcp/internal/cache"
	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/inference"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// fakeKeyStore is an in-memory Redis-like store.
type fakeKeyStore struct {
	name  string
	mu    sync.Mutex
	keys  []string
	types map[string]string
}

func (f *fakeKeyStore) Name() string { return f.name }
func (f *fakeKeyStore) Kind() config.StoreKind { return config.KindRedis }
func (f *fakeKeyStore) Layout() connector.Layout { return connector.LayoutFlat }
func (f *fakeKeyStore) Close() error { return nil }

func (f *fakeKeyStore) setKeys(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = keys
}

func (f *fakeKeyStore) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sampler.NewSliceCursor(slices.Clone(f.keys), batchHint), nil
}

func (f *fakeKeyStore) KeyType(ctx context.Context, key string) (string, error) {
	t, ok := f.types[key]
	if !ok {
		return "", fmt.Errorf("key %q vanished", key)
	}
	return t, nil
}

// fakeDocStore is an in-memory MongoDB-like store.
type fakeDocStore struct {
	name        string
	collections map[string][]docvalue.Object
}

func (f *fakeDocStore) Name() string { return f.name }
func (f *fakeDocStore) Kind() config.StoreKind { return config.KindMongoDB }
func (f *fakeDocStore) Layout() connector.Layout { return connector.LayoutDocuments }
func (f *fakeDocStore) Close() error { return nil }

func (f *fakeDocStore) Collections(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeDocStore) Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error) {
	docs, ok := f.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}
	return sampler.NewSliceCursor(docs, batchHint), nil
}

func (f *fakeDocStore) Count(ctx context.Context, collection string) (int64, error) {
	return int64(len(f.collections[collection])), nil
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{
		name: "cache",
		keys: []string{"user:1", "user:2", "user:3"},
		types: map[string]string{
			"user:1": "hash", "user:2": "hash", "user:3": "hash",
		},
	}
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		name: "app",
		collections: map[string][]docvalue.Object{
			"users": {
				{"name": docvalue.String("Ada"), "age": docvalue.Int(36)},
				{"name": docvalue.String("Alan"), "age": docvalue.Int(41), "email": docvalue.String("alan@example.com")},
			},
			"orders": {
				{"total": docvalue.Number(9.5)},
			},
			"events": {
				{"kind": docvalue.String("login")},
			},
		},
	}
}

// newTestDeps wires the tools over in-memory stores.
func newTestDeps(t *testing.T, stores ...connector.Store) *Deps {
	t.Helper()

	byName := make(map[string]connector.Store, len(stores))
	configs := make([]config.StoreConfig, 0, len(stores))
	for _, s := range stores {
		byName[s.Name()] = s
		configs = append(configs, config.StoreConfig{Name: s.Name(), Kind: s.Kind(), Description: "test " + string(s.Kind())})
	}

	registry := connector.NewRegistry(configs, connector.Options{}, connector.WithOpenFunc(
		func(ctx context.Context, cfg config.StoreConfig, opts connector.Options) (connector.Store, error) {
			return byName[cfg.Name], nil
		},
	))
	results, err := cache.NewResultStore(16)
	require.NoError(t, err)

	return &Deps{
		Config:  &config.Config{StoresFile: "stores.yaml", MaxCollections: 2},
		Stores:  registry,
		Engine:  inference.NewEngine(inference.Options{}),
		Results: results,
	}
}

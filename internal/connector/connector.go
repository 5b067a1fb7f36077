// Package connector adapts concrete stores to the inference source contracts.
//
// Each connector wraps one store driver and exposes either a key cursor
// (flat and hierarchical layouts) or per-collection document cursors. Open
// picks the connector for a catalog entry by kind.
package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// ErrUnsupported is returned when a store does not offer the requested layout.
var ErrUnsupported = errors.New("operation not supported by store")

// Layout tells which inference pass fits a store.
type Layout string

const (
	LayoutFlat         Layout = "flat"
	LayoutHierarchical Layout = "hierarchical"
	LayoutDocuments    Layout = "documents"
)

// Store is an open connection to one catalog entry.
type Store interface {
	Name() string
	Kind() config.StoreKind
	Layout() Layout
	Close() error
}

// KeyStore serves raw keys.
type KeyStore interface {
	Store
	Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error)
}

// DocumentStore serves documents grouped in collections.
type DocumentStore interface {
	Store
	Collections(ctx context.Context) ([]string, error)
	Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error)
	Count(ctx context.Context, collection string) (int64, error)
}

// Options are connection settings shared by all connectors.
type Options struct {
	// ConnectTimeout bounds dialing and the initial ping.
	ConnectTimeout time.Duration
	// SampleSize is the number of documents a server-side sampler should
	// return (MongoDB $sample, SQL LIMIT).
	SampleSize int
}

type opener func(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error)

var openers = map[config.StoreKind]opener{
	config.KindRedis:    openRedis,
	config.KindSQLite:   openSQLite,
	config.KindS3:       openS3,
	config.KindMongoDB:  openMongo,
	config.KindPostgres: openPostgres,
}

// Open connects to the store described by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error) {
	open, ok := openers[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("store %q: unknown kind %q", cfg.Name, cfg.Kind)
	}
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = sampler.DefaultMaxItems
	}

	s, err := open(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", cfg.Name, err)
	}
	return s, nil
}

// LayoutOf returns the layout a store kind maps to.
func LayoutOf(kind config.StoreKind) Layout {
	switch kind {
	case config.KindS3:
		return LayoutHierarchical
	case config.KindMongoDB, config.KindPostgres:
		return LayoutDocuments
	default:
		return LayoutFlat
	}
}

// base carries the identity shared by every connector.
type base struct {
	name string
	kind config.StoreKind
}

func (b base) Name() string           { return b.name }
func (b base) Kind() config.StoreKind { return b.kind }
func (b base) Layout() Layout         { return LayoutOf(b.kind) }

// Package inference runs bounded schema-inference passes over schemaless
// stores and aggregates the observations into deterministic results.
//
// A pass is a single stateless call: sample, cluster or flatten, aggregate.
// Per-item failures and cap hits never fail a pass; they are counted and
// surfaced as warnings. Cursor errors and context errors are returned.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
	"github.com/usestring/storeschema-mcp/pkg/keypattern"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

// Engine defaults.
const (
	DefaultBatchSize = 100
	DefaultWorkers   = 8
)

// Options configures an Engine.
type Options struct {
	Limits      sampler.Limits
	BatchSize   int
	Workers     int
	SampleKeys  int
	MaxPatterns int
	Separator   keypattern.SeparatorOptions
	Hierarchy   keypattern.HierarchyOptions
	Fields      fieldinfer.Options
	// PassTimeout bounds a whole pass. Zero means no deadline beyond ctx.
	PassTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.SampleKeys <= 0 {
		o.SampleKeys = DefaultSampleKeys
	}
	o.SampleKeys = min(o.SampleKeys, MaxSampleKeys)
	if o.MaxPatterns <= 0 {
		o.MaxPatterns = DefaultMaxPatterns
	}
	return o
}

// Engine runs inference passes. It is safe for concurrent use; concurrent
// passes with the same name are deduplicated.
type Engine struct {
	opts  Options
	group singleflight.Group
	now   func() time.Time
}

// NewEngine creates an Engine. Zero-valued options take defaults.
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts.withDefaults(),
		now:  time.Now,
	}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// passConfig holds per-pass overrides.
type passConfig struct {
	name       string
	separator  *keypattern.SeparatorOptions
	sampleKeys int
	project    func(context.Context, docvalue.Object) (docvalue.Object, error)
	visit      func(docvalue.Object)
}

// PassOption overrides engine settings for one pass.
type PassOption func(*passConfig)

// WithName labels the pass for logs and results. Concurrent passes with the
// same name and settings share one execution.
func WithName(name string) PassOption {
	return func(c *passConfig) { c.name = name }
}

// WithSeparatorOptions overrides the separator heuristics for a flat pass.
func WithSeparatorOptions(opts keypattern.SeparatorOptions) PassOption {
	return func(c *passConfig) { c.separator = &opts }
}

// WithSampleKeys overrides K for a flat pass, clamped to 1..MaxSampleKeys.
func WithSampleKeys(n int) PassOption {
	return func(c *passConfig) { c.sampleKeys = max(1, min(n, MaxSampleKeys)) }
}

// WithProjection transforms each sampled document before inference. A
// projection error skips the document.
func WithProjection(fn func(context.Context, docvalue.Object) (docvalue.Object, error)) PassOption {
	return func(c *passConfig) { c.project = fn }
}

// WithDocumentVisitor receives every document that reached the field
// accumulator, in sample order.
func WithDocumentVisitor(fn func(docvalue.Object)) PassOption {
	return func(c *passConfig) { c.visit = fn }
}

func (e *Engine) passConfig(opts []PassOption) passConfig {
	cfg := passConfig{sampleKeys: e.opts.SampleKeys}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// shared runs fn under singleflight when the pass is named and has no
// per-document hooks. A shared execution is detached from the caller that
// started it and bounded only by PassTimeout; each caller stops waiting
// when its own ctx is done.
func (e *Engine) shared(ctx context.Context, key string, cfg passConfig, fn func(context.Context) (any, error)) (any, error) {
	if cfg.name == "" || cfg.project != nil || cfg.visit != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := e.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for pass %q: %w", cfg.name, ctx.Err())
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (e *Engine) passContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.PassTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.PassTimeout)
	}
	return context.WithCancel(ctx)
}

// InferKeys runs the flat (separator/ID-suffix) variant.
func (e *Engine) InferKeys(ctx context.Context, src KeySource, opts ...PassOption) (*KeyResult, error) {
	cfg := e.passConfig(opts)
	sep := e.opts.Separator
	if cfg.separator != nil {
		sep = *cfg.separator
	}

	key := fmt.Sprintf("flat\x00%s\x00%d\x00%v", cfg.name, cfg.sampleKeys, sep)
	v, err := e.shared(ctx, key, cfg, func(ctx context.Context) (any, error) {
		return e.inferFlat(ctx, src, cfg, sep)
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeyResult), nil
}

func (e *Engine) inferFlat(ctx context.Context, src KeySource, cfg passConfig, sep keypattern.SeparatorOptions) (*KeyResult, error) {
	ctx, cancel := e.passContext(ctx)
	defer cancel()

	start := e.now()
	passID := uuid.NewString()
	log := slog.With(slog.String("pass_id", passID), slog.String("store", cfg.name), slog.String("variant", string(VariantFlat)))
	log.Debug("sampling keys")

	sample, err := e.sampleKeys(ctx, src)
	if err != nil {
		return nil, err
	}

	keys := dedupe(sample.Items)
	log.Debug("clustering keys", slog.Int("scanned", len(sample.Items)), slog.Int("distinct", len(keys)))
	buckets := keypattern.NewGeneralizer(sep).Cluster(keys)

	types, failures, err := e.lookupTypes(ctx, log, src, keys)
	if err != nil {
		return nil, err
	}

	log.Debug("aggregating", slog.Int("buckets", len(buckets)))
	patterns, dropped := AggregateFlat(buckets, types, AggregateOptions{
		SampleKeys:  cfg.sampleKeys,
		MaxPatterns: e.opts.MaxPatterns,
	})

	res := &KeyResult{
		PassID:            passID,
		Store:             cfg.name,
		Variant:           VariantFlat,
		KeyPatterns:       patterns,
		TotalItemsScanned: len(sample.Items),
		DistinctKeys:      len(keys),
		StopReason:        sample.StopReason,
		LookupFailures:    failures,
		GeneratedAt:       start.UTC(),
	}
	res.Warnings = appendSampleWarning(res.Warnings, log, sample)
	if dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d smaller patterns omitted (cap %d)", dropped, e.opts.MaxPatterns))
	}
	if failures > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("type lookup failed for %d of %d keys; they are counted but absent from type histograms", failures, len(keys)))
	}

	log.Info("key inference completed",
		slog.Int("patterns", len(patterns)),
		slog.Int("scanned", res.TotalItemsScanned),
		slog.Int("lookup_failures", failures),
		slog.String("stop_reason", string(sample.StopReason)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

// InferHierarchy runs the hierarchical-prefix variant.
func (e *Engine) InferHierarchy(ctx context.Context, src KeySource, opts ...PassOption) (*KeyResult, error) {
	cfg := e.passConfig(opts)

	v, err := e.shared(ctx, "hier\x00"+cfg.name, cfg, func(ctx context.Context) (any, error) {
		return e.inferHierarchy(ctx, src, cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeyResult), nil
}

func (e *Engine) inferHierarchy(ctx context.Context, src KeySource, cfg passConfig) (*KeyResult, error) {
	ctx, cancel := e.passContext(ctx)
	defer cancel()

	start := e.now()
	passID := uuid.NewString()
	log := slog.With(slog.String("pass_id", passID), slog.String("store", cfg.name), slog.String("variant", string(VariantHierarchical)))
	log.Debug("sampling keys")

	sample, err := e.sampleKeys(ctx, src)
	if err != nil {
		return nil, err
	}

	prefixes := keypattern.ClusterHierarchy(sample.Items, e.opts.Hierarchy)

	res := &KeyResult{
		PassID:            passID,
		Store:             cfg.name,
		Variant:           VariantHierarchical,
		KeyPatterns:       AggregateHierarchy(prefixes),
		TotalItemsScanned: len(sample.Items),
		DistinctKeys:      len(dedupe(sample.Items)),
		StopReason:        sample.StopReason,
		GeneratedAt:       start.UTC(),
	}
	res.Warnings = appendSampleWarning(res.Warnings, log, sample)

	log.Info("hierarchy inference completed",
		slog.Int("prefixes", len(res.KeyPatterns)),
		slog.Int("scanned", res.TotalItemsScanned),
		slog.String("stop_reason", string(sample.StopReason)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

func (e *Engine) sampleKeys(ctx context.Context, src KeySource) (*sampler.Sample[string], error) {
	cur, err := src.Keys(ctx, e.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("opening key cursor: %w", err)
	}
	sample, err := sampler.Collect(ctx, cur, e.opts.Limits)
	if err != nil {
		return nil, fmt.Errorf("sampling keys: %w", err)
	}
	return sample, nil
}

// lookupTypes resolves the value type of each key with a bounded worker
// pool. Results are written by index so completion order never matters.
// Returns nil types when src offers no lookup primitive.
func (e *Engine) lookupTypes(ctx context.Context, log *slog.Logger, src KeySource, keys []string) (map[string]string, int, error) {
	var lookup func(context.Context, string) (string, error)
	switch s := src.(type) {
	case KeyTyper:
		lookup = s.KeyType
	case ValueFetcher:
		lookup = func(ctx context.Context, key string) (string, error) {
			v, err := s.FetchValue(ctx, key)
			if err != nil {
				return "", err
			}
			return string(typetag.Of(v)), nil
		}
	default:
		return nil, 0, nil
	}

	results := make([]string, len(keys))
	ok := make([]bool, len(keys))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)

	var mu sync.Mutex
	failures := 0

	for i, key := range keys {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			t, err := lookup(ctx, key)
			if err != nil {
				log.Debug("type lookup failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			results[i] = t
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("looking up key types: %w", err)
	}

	types := make(map[string]string, len(keys))
	for i, key := range keys {
		if ok[i] {
			types[key] = results[i]
		}
	}
	return types, failures, nil
}

// InferDocuments runs field inference over one collection.
func (e *Engine) InferDocuments(ctx context.Context, src DocumentSource, collection string, opts ...PassOption) (*DocumentResult, error) {
	cfg := e.passConfig(opts)

	v, err := e.shared(ctx, "docs\x00"+cfg.name+"\x00"+collection, cfg, func(ctx context.Context) (any, error) {
		return e.inferDocuments(ctx, src, collection, cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DocumentResult), nil
}

func (e *Engine) inferDocuments(ctx context.Context, src DocumentSource, collection string, cfg passConfig) (*DocumentResult, error) {
	ctx, cancel := e.passContext(ctx)
	defer cancel()

	start := e.now()
	passID := uuid.NewString()
	log := slog.With(slog.String("pass_id", passID), slog.String("store", cfg.name), slog.String("collection", collection))
	log.Debug("sampling documents")

	cur, err := src.Documents(ctx, collection, e.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("opening document cursor: %w", err)
	}
	sample, err := sampler.Collect(ctx, cur, e.opts.Limits)
	if err != nil {
		return nil, fmt.Errorf("sampling documents: %w", err)
	}

	acc := fieldinfer.NewAccumulator(e.opts.Fields)
	skipped := 0
	for _, doc := range sample.Items {
		if doc == nil {
			skipped++
			continue
		}
		if cfg.project != nil {
			projected, err := cfg.project(ctx, doc)
			if err != nil {
				log.Debug("projection failed", slog.String("error", err.Error()))
				skipped++
				continue
			}
			doc = projected
		}
		acc.Add(doc)
		if cfg.visit != nil {
			cfg.visit(doc)
		}
	}

	res := &DocumentResult{
		PassID:           passID,
		Store:            cfg.name,
		Collection:       collection,
		Fields:           acc.Fields(),
		SampleSize:       len(sample.Items),
		SkippedDocuments: skipped,
		TruncatedPaths:   acc.TruncatedPaths(),
		StopReason:       sample.StopReason,
		GeneratedAt:      start.UTC(),
	}

	total, err := src.Count(ctx, collection)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("counting documents: %w", ctx.Err())
		}
		log.Debug("document count unavailable", slog.String("error", err.Error()))
		res.Warnings = append(res.Warnings, "total document count unavailable")
	} else {
		res.TotalCount = total
	}

	res.Warnings = appendSampleWarning(res.Warnings, log, sample)
	if skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d of %d sampled documents could not be used", skipped, len(sample.Items)))
	}
	if res.TruncatedPaths > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d field paths omitted (cap reached)", res.TruncatedPaths))
	}

	log.Info("document inference completed",
		slog.Int("fields", len(res.Fields)),
		slog.Int("sample_size", res.SampleSize),
		slog.Int("skipped", skipped),
		slog.String("stop_reason", string(sample.StopReason)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

func appendSampleWarning[T any](warnings []string, log *slog.Logger, sample *sampler.Sample[T]) []string {
	w := sample.Warning()
	if w == "" {
		return warnings
	}
	log.Warn("sampling stopped early",
		slog.String("stop_reason", string(sample.StopReason)),
		slog.Int("items", len(sample.Items)),
		slog.Int("iterations", sample.Iterations),
	)
	return append(warnings, w)
}

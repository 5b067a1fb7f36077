package tools

import (
	"context"
	"fmt"

	"github.com/usestring/storeschema-mcp/internal/cache"
	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config  *config.Config
	Stores  *connector.Registry
	Engine  *inference.Engine
	Results *cache.ResultStore
}

// KeyStore opens name and checks that it serves keys.
func (d *Deps) KeyStore(ctx context.Context, name string) (connector.KeyStore, error) {
	s, err := d.Stores.Get(ctx, name)
	if err != nil {
		return nil, WrapStoreError(err)
	}
	ks, ok := s.(connector.KeyStore)
	if !ok {
		return nil, WrapStoreError(fmt.Errorf("store %q has %s layout, not keys: %w", name, s.Layout(), connector.ErrUnsupported))
	}
	return ks, nil
}

// DocumentStore opens name and checks that it serves documents.
func (d *Deps) DocumentStore(ctx context.Context, name string) (connector.DocumentStore, error) {
	s, err := d.Stores.Get(ctx, name)
	if err != nil {
		return nil, WrapStoreError(err)
	}
	ds, ok := s.(connector.DocumentStore)
	if !ok {
		return nil, WrapStoreError(fmt.Errorf("store %q has %s layout, not documents: %w", name, s.Layout(), connector.ErrUnsupported))
	}
	return ds, nil
}

// InferKeys runs the key pass matching variant ("" picks the store's
// layout) and records the result.
func (d *Deps) InferKeys(ctx context.Context, name string, variant inference.Variant, sampleKeys int) (*inference.KeyResult, error) {
	ks, err := d.KeyStore(ctx, name)
	if err != nil {
		return nil, err
	}
	cfg, _ := d.Stores.Config(name)

	if variant == "" {
		variant = inference.VariantFlat
		if ks.Layout() == connector.LayoutHierarchical {
			variant = inference.VariantHierarchical
		}
	}

	opts := []inference.PassOption{inference.WithName(name)}
	var res *inference.KeyResult
	switch variant {
	case inference.VariantFlat:
		opts = append(opts, inference.WithSeparatorOptions(cfg.Separator))
		if sampleKeys > 0 {
			opts = append(opts, inference.WithSampleKeys(sampleKeys))
		}
		res, err = d.Engine.InferKeys(ctx, ks, opts...)
	case inference.VariantHierarchical:
		res, err = d.Engine.InferHierarchy(ctx, ks, opts...)
	default:
		return nil, ErrInvalidInput(fmt.Sprintf("variant must be %q or %q", inference.VariantFlat, inference.VariantHierarchical))
	}
	if err != nil {
		return nil, WrapStoreError(err)
	}

	d.Results.PutKeys(res)
	return res, nil
}

// InferDocuments runs a document pass over one collection. Unfiltered
// results are recorded as the collection's snapshot.
func (d *Deps) InferDocuments(ctx context.Context, name, collection string, opts ...inference.PassOption) (*inference.DocumentResult, error) {
	if collection == "" {
		return nil, ErrInvalidInput("collection is required")
	}
	ds, err := d.DocumentStore(ctx, name)
	if err != nil {
		return nil, err
	}

	res, err := d.Engine.InferDocuments(ctx, ds, collection, append([]inference.PassOption{inference.WithName(name)}, opts...)...)
	if err != nil {
		return nil, WrapStoreError(err)
	}
	if len(opts) == 0 {
		d.Results.PutDocuments(res)
	}
	return res, nil
}

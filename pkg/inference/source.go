package inference

import (
	"context"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// KeySource opens a fresh key cursor per pass. batchHint is advisory.
type KeySource interface {
	Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error)
}

// KeyTyper is an optional native type oracle (e.g. Redis TYPE). When a
// KeySource implements it, the flat variant uses it for the type histogram.
type KeyTyper interface {
	KeyType(ctx context.Context, key string) (string, error)
}

// ValueFetcher is an optional value-fetch primitive. It is used for the type
// histogram when no KeyTyper is available; the value is classified with
// typetag.Of.
type ValueFetcher interface {
	FetchValue(ctx context.Context, key string) (docvalue.Value, error)
}

// DocumentSource serves documents of named collections.
//
// Cursors may emit a nil Object for an item that could not be decoded; it
// counts toward the sample size and is reported as skipped.
type DocumentSource interface {
	Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error)
	Count(ctx context.Context, collection string) (int64, error)
}

package sampler

import "context"

// FuncCursor adapts a plain function to the Cursor interface.
type FuncCursor[T any] func(ctx context.Context) ([]T, bool, error)

// Next calls f.
func (f FuncCursor[T]) Next(ctx context.Context) ([]T, bool, error) {
	return f(ctx)
}

// Close is a no-op.
func (f FuncCursor[T]) Close() error { return nil }

// ClosingCursor pairs a Next function with a release function, e.g. for a
// cursor backed by open database rows.
type ClosingCursor[T any] struct {
	NextFunc  func(ctx context.Context) ([]T, bool, error)
	CloseFunc func() error

	closed bool
}

// Next calls NextFunc.
func (c *ClosingCursor[T]) Next(ctx context.Context) ([]T, bool, error) {
	if c.closed {
		return nil, true, nil
	}
	return c.NextFunc(ctx)
}

// Close calls CloseFunc once.
func (c *ClosingCursor[T]) Close() error {
	if c.closed || c.CloseFunc == nil {
		c.closed = true
		return nil
	}
	c.closed = true
	return c.CloseFunc()
}

// SliceCursor serves a fixed slice in batches. Useful for in-memory stores.
type SliceCursor[T any] struct {
	items     []T
	batchSize int
	pos       int
}

// NewSliceCursor creates a cursor over items with the given batch size
// (values below 1 mean one item per batch).
func NewSliceCursor[T any](items []T, batchSize int) *SliceCursor[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SliceCursor[T]{items: items, batchSize: batchSize}
}

// Next returns the next batch.
func (c *SliceCursor[T]) Next(ctx context.Context) ([]T, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	end := min(c.pos+c.batchSize, len(c.items))
	batch := c.items[c.pos:end]
	c.pos = end
	return batch, c.pos >= len(c.items), nil
}

// Close is a no-op.
func (c *SliceCursor[T]) Close() error { return nil }

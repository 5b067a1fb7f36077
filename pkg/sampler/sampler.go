// Package sampler draws a bounded sample of raw items from a store cursor.
//
// A cursor is pull-based and single-use: each call to Next advances the
// store-side iteration once and returns the next batch. Sample stops at the
// first of three events: the cursor reports exhaustion, MaxItems items were
// collected, or MaxIterations advances were made. Hitting either cap is not
// an error; the partial sample is returned with a StopReason the caller can
// surface as a warning.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
)

// Default limits.
const (
	DefaultMaxItems      = 1000
	DefaultMaxIterations = 1000
)

// Cursor is a store-specific iteration primitive. Next returns the next
// batch and done=true once the store signals exhaustion. A batch may be
// empty while done is false (e.g. a Redis SCAN step that matched nothing).
// Close releases store-side resources; it must be safe to call after
// exhaustion and more than once.
type Cursor[T any] interface {
	Next(ctx context.Context) (batch []T, done bool, err error)
	Close() error
}

// Limits bounds a sampling pass.
type Limits struct {
	MaxItems      int `json:"max_items"`
	MaxIterations int `json:"max_iterations"`
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxItems:      DefaultMaxItems,
		MaxIterations: DefaultMaxIterations,
	}
}

// withDefaults replaces non-positive limits with defaults.
func (l Limits) withDefaults() Limits {
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxItems
	}
	if l.MaxIterations <= 0 {
		l.MaxIterations = DefaultMaxIterations
	}
	return l
}

// StopReason records why a sampling pass ended.
type StopReason string

const (
	StopExhausted    StopReason = "exhausted"
	StopItemCap      StopReason = "item_cap"
	StopIterationCap StopReason = "iteration_cap"
)

// Truncated reports whether the pass ended before the store was exhausted.
func (r StopReason) Truncated() bool {
	return r == StopItemCap || r == StopIterationCap
}

// Sample is the ordered result of one sampling pass.
type Sample[T any] struct {
	Items      []T
	Iterations int
	StopReason StopReason
}

// Warning returns a human-readable note when the pass was cut short, or "".
func (s *Sample[T]) Warning() string {
	switch s.StopReason {
	case StopItemCap:
		return fmt.Sprintf("sample capped at %d items; the store holds more", len(s.Items))
	case StopIterationCap:
		return fmt.Sprintf("scan stopped after %d cursor advances with %d items collected; the store did not signal exhaustion", s.Iterations, len(s.Items))
	}
	return ""
}

// Collect drains cur until exhaustion or a limit is reached, then closes
// it. Items keep the order in which the cursor produced them. Cursor errors
// and context cancellation are returned as-is; the partial sample is
// discarded.
func Collect[T any](ctx context.Context, cur Cursor[T], limits Limits) (*Sample[T], error) {
	defer func() {
		if err := cur.Close(); err != nil {
			slog.Debug("closing cursor", slog.String("error", err.Error()))
		}
	}()
	limits = limits.withDefaults()

	s := &Sample[T]{
		Items:      make([]T, 0, min(limits.MaxItems, 256)),
		StopReason: StopExhausted,
	}

	for {
		if len(s.Items) >= limits.MaxItems {
			s.StopReason = StopItemCap
			return s, nil
		}
		if s.Iterations >= limits.MaxIterations {
			s.StopReason = StopIterationCap
			return s, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, done, err := cur.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("advancing cursor: %w", err)
		}
		s.Iterations++

		room := limits.MaxItems - len(s.Items)
		if len(batch) > room {
			s.Items = append(s.Items, batch[:room]...)
			s.StopReason = StopItemCap
			return s, nil
		}
		s.Items = append(s.Items, batch...)

		if done {
			// A final batch that lands exactly on the cap still exhausted the store.
			return s, nil
		}
	}
}

package sampler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("user:%d", i)
	}
	return keys
}

func TestCollect_StopsAtItemCap(t *testing.T) {
	cur := NewSliceCursor(makeKeys(10000), 100)

	s, err := Collect[string](context.Background(), cur, Limits{MaxItems: 5, MaxIterations: 100})
	require.NoError(t, err)

	assert.Equal(t, []string{"user:0", "user:1", "user:2", "user:3", "user:4"}, s.Items)
	assert.Equal(t, StopItemCap, s.StopReason)
	assert.Equal(t, 1, s.Iterations)
	assert.NotEmpty(t, s.Warning())
}

func TestCollect_StopsAtIterationCap(t *testing.T) {
	// A cursor that never signals exhaustion and returns nothing.
	calls := 0
	cur := FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		calls++
		return nil, false, nil
	})

	s, err := Collect[string](context.Background(), cur, Limits{MaxItems: 5, MaxIterations: 50})
	require.NoError(t, err)

	assert.Empty(t, s.Items)
	assert.Equal(t, StopIterationCap, s.StopReason)
	assert.Equal(t, 50, calls)
	assert.True(t, s.StopReason.Truncated())
	assert.Contains(t, s.Warning(), "50 cursor advances")
}

func TestCollect_PartialBeforeIterationCap(t *testing.T) {
	cur := FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		return []string{"k"}, false, nil
	})

	s, err := Collect[string](context.Background(), cur, Limits{MaxItems: 100, MaxIterations: 3})
	require.NoError(t, err)
	assert.Len(t, s.Items, 3)
	assert.Equal(t, StopIterationCap, s.StopReason)
}

func TestCollect_Exhausted(t *testing.T) {
	cur := NewSliceCursor(makeKeys(7), 3)

	s, err := Collect[string](context.Background(), cur, Limits{MaxItems: 100, MaxIterations: 100})
	require.NoError(t, err)

	assert.Len(t, s.Items, 7)
	assert.Equal(t, StopExhausted, s.StopReason)
	assert.Equal(t, 3, s.Iterations)
	assert.Empty(t, s.Warning())
	assert.False(t, s.StopReason.Truncated())
}

func TestCollect_ExactFitIsExhausted(t *testing.T) {
	cur := NewSliceCursor(makeKeys(5), 5)

	s, err := Collect[string](context.Background(), cur, Limits{MaxItems: 5, MaxIterations: 10})
	require.NoError(t, err)
	assert.Len(t, s.Items, 5)
	assert.Equal(t, StopExhausted, s.StopReason)
}

func TestCollect_EmptyStore(t *testing.T) {
	cur := NewSliceCursor([]string{}, 10)

	s, err := Collect[string](context.Background(), cur, DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, s.Items)
	assert.NotNil(t, s.Items)
	assert.Equal(t, StopExhausted, s.StopReason)
}

func TestCollect_PropagatesCursorError(t *testing.T) {
	boom := errors.New("connection reset")
	cur := FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		return nil, false, boom
	})

	_, err := Collect[string](context.Background(), cur, DefaultLimits())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect[string](ctx, NewSliceCursor(makeKeys(3), 1), DefaultLimits())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollect_DefaultsApplied(t *testing.T) {
	cur := NewSliceCursor(makeKeys(DefaultMaxItems+50), 500)

	s, err := Collect[string](context.Background(), cur, Limits{})
	require.NoError(t, err)
	assert.Len(t, s.Items, DefaultMaxItems)
}

// trackingCursor counts Close calls around a FuncCursor.
type trackingCursor struct {
	FuncCursor[string]
	closes int
}

func (c *trackingCursor) Close() error {
	c.closes++
	return nil
}

func TestCollect_ClosesCursor(t *testing.T) {
	tests := []struct {
		name   string
		next   FuncCursor[string]
		limits Limits
		reason StopReason
	}{
		{
			name: "item cap on a full batch",
			next: func(ctx context.Context) ([]string, bool, error) {
				return []string{"a", "b"}, false, nil
			},
			limits: Limits{MaxItems: 4, MaxIterations: 10},
			reason: StopItemCap,
		},
		{
			name: "item cap mid batch",
			next: func(ctx context.Context) ([]string, bool, error) {
				return []string{"a", "b", "c"}, false, nil
			},
			limits: Limits{MaxItems: 4, MaxIterations: 10},
			reason: StopItemCap,
		},
		{
			name: "iteration cap",
			next: func(ctx context.Context) ([]string, bool, error) {
				return nil, false, nil
			},
			limits: Limits{MaxItems: 4, MaxIterations: 3},
			reason: StopIterationCap,
		},
		{
			name: "exhausted",
			next: func(ctx context.Context) ([]string, bool, error) {
				return []string{"a"}, true, nil
			},
			limits: Limits{MaxItems: 4, MaxIterations: 10},
			reason: StopExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := &trackingCursor{FuncCursor: tt.next}

			s, err := Collect[string](context.Background(), cur, tt.limits)
			require.NoError(t, err)
			assert.Equal(t, tt.reason, s.StopReason)
			assert.Equal(t, 1, cur.closes)
		})
	}
}

func TestCollect_ClosesCursorOnError(t *testing.T) {
	cur := &trackingCursor{FuncCursor: func(ctx context.Context) ([]string, bool, error) {
		return nil, false, errors.New("connection reset")
	}}

	_, err := Collect[string](context.Background(), cur, DefaultLimits())
	require.Error(t, err)
	assert.Equal(t, 1, cur.closes)
}

func TestClosingCursor(t *testing.T) {
	closes := 0
	cur := &ClosingCursor[string]{
		NextFunc: func(ctx context.Context) ([]string, bool, error) {
			return []string{"k"}, false, nil
		},
		CloseFunc: func() error {
			closes++
			return nil
		},
	}

	batch, done, err := cur.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, batch)
	assert.False(t, done)

	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())
	assert.Equal(t, 1, closes)

	batch, done, err = cur.Next(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.True(t, done)
}

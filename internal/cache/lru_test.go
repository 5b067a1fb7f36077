package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeschema-mcp/pkg/inference"
)

func TestResultStore(t *testing.T) {
	c, err := NewResultStore(2)
	require.NoError(t, err)

	first := &inference.KeyResult{Store: "cache", PassID: "1"}
	c.PutKeys(first)
	c.PutKeys(&inference.KeyResult{Store: "cache", PassID: "2"})

	got, ok := c.Keys("cache")
	require.True(t, ok)
	assert.Equal(t, "2", got.PassID)

	c.PutDocuments(&inference.DocumentResult{Store: "app", Collection: "users"})
	_, ok = c.Documents("app", "users")
	assert.True(t, ok)
	_, ok = c.Documents("app", "orders")
	assert.False(t, ok)

	assert.Equal(t, 2, c.Len())
}

func TestResultStore_Evicts(t *testing.T) {
	c, err := NewResultStore(1)
	require.NoError(t, err)

	c.PutKeys(&inference.KeyResult{Store: "a"})
	c.PutKeys(&inference.KeyResult{Store: "b"})

	_, ok := c.Keys("a")
	assert.False(t, ok)
	_, ok = c.Keys("b")
	assert.True(t, ok)
}

func TestNewResultStore_InvalidSize(t *testing.T) {
	_, err := NewResultStore(0)
	assert.Error(t, err)
}

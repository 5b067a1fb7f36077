// Package cache keeps the most recent inference results for the MCP server.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// ResultStore provides thread-safe LRU caching of the latest pass result per
// store (key passes) and per store/collection (document passes).
type ResultStore struct {
	keys *lru.Cache[string, *inference.KeyResult]
	docs *lru.Cache[string, *inference.DocumentResult]
}

// NewResultStore creates a ResultStore holding up to maxItems results of
// each kind.
func NewResultStore(maxItems int) (*ResultStore, error) {
	keys, err := lru.New[string, *inference.KeyResult](maxItems)
	if err != nil {
		return nil, err
	}
	docs, err := lru.New[string, *inference.DocumentResult](maxItems)
	if err != nil {
		return nil, err
	}
	return &ResultStore{keys: keys, docs: docs}, nil
}

// DocumentKey is the cache key of a document result.
func DocumentKey(store, collection string) string {
	return store + "/" + collection
}

// PutKeys records the latest key result for its store.
func (c *ResultStore) PutKeys(res *inference.KeyResult) {
	c.keys.Add(res.Store, res)
}

// Keys returns the latest key result for store.
func (c *ResultStore) Keys(store string) (*inference.KeyResult, bool) {
	return c.keys.Get(store)
}

// PutDocuments records the latest document result for its store/collection.
func (c *ResultStore) PutDocuments(res *inference.DocumentResult) {
	c.docs.Add(DocumentKey(res.Store, res.Collection), res)
}

// Documents returns the latest document result for store/collection.
func (c *ResultStore) Documents(store, collection string) (*inference.DocumentResult, bool) {
	return c.docs.Get(DocumentKey(store, collection))
}

// Len returns the total number of cached results.
func (c *ResultStore) Len() int {
	return c.keys.Len() + c.docs.Len()
}

package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/keypattern"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

// fakeKeys is an in-memory key store.
type fakeKeys struct {
	keys  []string
	err   error
	opens atomic.Int32
}

func (f *fakeKeys) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	f.opens.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return sampler.NewSliceCursor(f.keys, batchHint), nil
}

// typedKeys adds a native type oracle.
type typedKeys struct {
	fakeKeys
	types map[string]string
	calls atomic.Int32
}

func (f *typedKeys) KeyType(ctx context.Context, key string) (string, error) {
	f.calls.Add(1)
	t, ok := f.types[key]
	if !ok {
		return "", fmt.Errorf("key %q vanished", key)
	}
	return t, nil
}

// valueKeys adds a value-fetch primitive.
type valueKeys struct {
	fakeKeys
	values map[string]docvalue.Value
}

func (f *valueKeys) FetchValue(ctx context.Context, key string) (docvalue.Value, error) {
	v, ok := f.values[key]
	if !ok {
		return docvalue.Value{}, errors.New("not found")
	}
	return v, nil
}

// fakeDocs is an in-memory document store.
type fakeDocs struct {
	collections map[string][]docvalue.Object
	countErr    error
}

func (f *fakeDocs) Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error) {
	docs, ok := f.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", collection)
	}
	return sampler.NewSliceCursor(docs, batchHint), nil
}

func (f *fakeDocs) Count(ctx context.Context, collection string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.collections[collection])), nil
}

func TestInferKeys_SingleIDPattern(t *testing.T) {
	e := NewEngine(Options{})
	src := &fakeKeys{keys: []string{"user:1:name", "user:2:name", "user:3:name"}}

	res, err := e.InferKeys(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, res.KeyPatterns, 1)
	assert.Equal(t, "user:*", res.KeyPatterns[0].Pattern)
	assert.Equal(t, 3, res.KeyPatterns[0].Count)
	assert.Equal(t, src.keys, res.KeyPatterns[0].SampleKeys)
	assert.Equal(t, 3, res.TotalItemsScanned)
	assert.Equal(t, sampler.StopExhausted, res.StopReason)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.PassID)
	assert.Equal(t, VariantFlat, res.Variant)
}

func TestInferKeys_EmptyStore(t *testing.T) {
	e := NewEngine(Options{})

	res, err := e.InferKeys(context.Background(), &fakeKeys{})
	require.NoError(t, err)
	assert.Empty(t, res.KeyPatterns)
	assert.NotNil(t, res.KeyPatterns)
	assert.Zero(t, res.TotalItemsScanned)
}

func TestInferKeys_ItemCap(t *testing.T) {
	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("event:%d", i)
	}
	e := NewEngine(Options{Limits: sampler.Limits{MaxItems: 5}})
	src := &typedKeys{fakeKeys: fakeKeys{keys: keys}, types: map[string]string{}}

	res, err := e.InferKeys(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalItemsScanned)
	assert.Equal(t, sampler.StopItemCap, res.StopReason)
	assert.EqualValues(t, 5, src.calls.Load(), "type lookups bounded by the sample")
	require.NotEmpty(t, res.Warnings)
}

func TestInferKeys_TypeHistogramWithFailures(t *testing.T) {
	src := &typedKeys{
		fakeKeys: fakeKeys{keys: []string{"user:1", "user:2", "user:3", "queue:1", "user:1"}},
		types: map[string]string{
			"user:1":  "hash",
			"user:2":  "hash",
			"queue:1": "list",
		},
	}
	e := NewEngine(Options{Workers: 2})

	res, err := e.InferKeys(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, res.KeyPatterns, 2)
	assert.Equal(t, "user:*", res.KeyPatterns[0].Pattern)
	assert.Equal(t, 3, res.KeyPatterns[0].Count)
	assert.Equal(t, map[string]int{"hash": 2}, res.KeyPatterns[0].TypeHistogram)
	assert.Equal(t, map[string]int{"list": 1}, res.KeyPatterns[1].TypeHistogram)

	assert.Equal(t, 5, res.TotalItemsScanned)
	assert.Equal(t, 4, res.DistinctKeys)
	assert.Equal(t, 1, res.LookupFailures)
	assert.True(t, hasWarning(res.Warnings, "type lookup failed for 1 of 4"))
}

func TestInferKeys_ValueFetcherUsesTypeTags(t *testing.T) {
	src := &valueKeys{
		fakeKeys: fakeKeys{keys: []string{"cfg:1", "cfg:2", "cfg:3"}},
		values: map[string]docvalue.Value{
			"cfg:1": docvalue.Int(1),
			"cfg:2": docvalue.ObjectValue(docvalue.Object{"a": docvalue.Bool(true)}),
		},
	}

	res, err := NewEngine(Options{}).InferKeys(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.KeyPatterns, 1)
	assert.Equal(t, map[string]int{string(typetag.Integer): 1, string(typetag.Object): 1}, res.KeyPatterns[0].TypeHistogram)
	assert.Equal(t, 1, res.LookupFailures)
}

func TestInferKeys_PassOptions(t *testing.T) {
	keys := make([]string, 20)
	for i := range keys {
		keys[i] = fmt.Sprintf("tenant|%d", i)
	}

	res, err := NewEngine(Options{}).InferKeys(context.Background(), &fakeKeys{keys: keys},
		WithName("tenants"),
		WithSeparatorOptions(keypattern.SeparatorOptions{Separators: []string{"|"}}),
		WithSampleKeys(50),
	)
	require.NoError(t, err)
	require.Len(t, res.KeyPatterns, 1)
	assert.Equal(t, "tenant|*", res.KeyPatterns[0].Pattern)
	assert.Len(t, res.KeyPatterns[0].SampleKeys, MaxSampleKeys)
	assert.Equal(t, "tenants", res.Store)
}

func TestInferKeys_PatternCapWarning(t *testing.T) {
	keys := []string{"a:1", "a:2", "b:1", "c:1"}

	res, err := NewEngine(Options{MaxPatterns: 1}).InferKeys(context.Background(), &fakeKeys{keys: keys})
	require.NoError(t, err)
	require.Len(t, res.KeyPatterns, 1)
	assert.Equal(t, "a:*", res.KeyPatterns[0].Pattern)
	assert.True(t, hasWarning(res.Warnings, "2 smaller patterns omitted"))
}

func TestInferKeys_CursorOpenError(t *testing.T) {
	boom := errors.New("dial tcp: refused")

	_, err := NewEngine(Options{}).InferKeys(context.Background(), &fakeKeys{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestInferKeys_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(Options{}).InferKeys(ctx, &fakeKeys{keys: []string{"a:1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferKeys_IterationCapNeverFails(t *testing.T) {
	src := cursorKeys(sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		return nil, false, nil
	}))

	res, err := NewEngine(Options{Limits: sampler.Limits{MaxIterations: 10}}).InferKeys(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, sampler.StopIterationCap, res.StopReason)
	assert.Len(t, res.Warnings, 1)
}

func TestInferKeys_Deterministic(t *testing.T) {
	keys := []string{"b:1", "a:1", "a:2", "session991", "x_y_z", "b:2", "c.1"}
	e := NewEngine(Options{})

	r1, err := e.InferKeys(context.Background(), &fakeKeys{keys: keys})
	require.NoError(t, err)
	r2, err := e.InferKeys(context.Background(), &fakeKeys{keys: keys})
	require.NoError(t, err)

	assert.Equal(t, r1.KeyPatterns, r2.KeyPatterns)
	assert.NotEqual(t, r1.PassID, r2.PassID)
}

func TestInferKeys_CountConservation(t *testing.T) {
	keys := []string{"a:1", "a:2", "b:1", "plain", "zzz9", "a:1", "x-deadbeef"}

	res, err := NewEngine(Options{}).InferKeys(context.Background(), &fakeKeys{keys: keys})
	require.NoError(t, err)

	total := 0
	for _, p := range res.KeyPatterns {
		total += p.Count
	}
	assert.Equal(t, res.DistinctKeys, total)
}

func TestInferHierarchy(t *testing.T) {
	src := &fakeKeys{keys: []string{"/a/1", "/a/2", "/b/1"}}

	res, err := NewEngine(Options{}).InferHierarchy(context.Background(), src, WithName("bucket"))
	require.NoError(t, err)

	assert.Equal(t, VariantHierarchical, res.Variant)
	require.Len(t, res.KeyPatterns, 2)
	assert.Equal(t, KeyPattern{Pattern: "/a/", Count: 2, SampleKeys: []string{"/a/1", "/a/2"}, Depth: 1}, res.KeyPatterns[0])
	assert.Equal(t, KeyPattern{Pattern: "/b/", Count: 1, SampleKeys: []string{"/b/1"}, Depth: 1}, res.KeyPatterns[1])
	assert.Equal(t, 3, res.TotalItemsScanned)
}

func TestInferHierarchy_EachPrefixCountsDistinctKeys(t *testing.T) {
	keys := []string{"/x/a/1", "/x/a/2", "/x/b/1", "/x/a/1"}

	res, err := NewEngine(Options{}).InferHierarchy(context.Background(), &fakeKeys{keys: keys})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, p := range res.KeyPatterns {
		counts[p.Pattern] = p.Count
	}
	assert.Equal(t, map[string]int{"/x/": 3, "/x/a/": 2}, counts)
}

func TestInferDocuments(t *testing.T) {
	src := &fakeDocs{collections: map[string][]docvalue.Object{
		"people": {
			{"name": docvalue.String("A")},
			{"name": docvalue.String("B")},
			{"name": docvalue.Int(42)},
		},
	}}

	res, err := NewEngine(Options{}).InferDocuments(context.Background(), src, "people")
	require.NoError(t, err)

	assert.Equal(t, "people", res.Collection)
	assert.Equal(t, 3, res.SampleSize)
	assert.EqualValues(t, 3, res.TotalCount)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, 100, res.Fields[0].Occurrence)
	assert.Equal(t, 67, res.Fields[0].TypeDistribution[0].Percentage)
	assert.Equal(t, 33, res.Fields[0].TypeDistribution[1].Percentage)
}

func TestInferDocuments_SkipsUndecodable(t *testing.T) {
	src := &fakeDocs{collections: map[string][]docvalue.Object{
		"c": {{"a": docvalue.Int(1)}, nil, {"a": docvalue.Int(2)}},
	}}

	res, err := NewEngine(Options{}).InferDocuments(context.Background(), src, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SampleSize)
	assert.Equal(t, 1, res.SkippedDocuments)
	require.Len(t, res.Fields, 1)
	// Occurrence is relative to the documents that reached the accumulator.
	assert.Equal(t, 100, res.Fields[0].Occurrence)
}

func TestInferDocuments_ProjectionAndVisitor(t *testing.T) {
	src := &fakeDocs{collections: map[string][]docvalue.Object{
		"c": {
			{"keep": docvalue.Int(1), "drop": docvalue.Int(2)},
			{"keep": docvalue.String("x"), "bad": docvalue.Bool(true)},
		},
	}}

	project := func(ctx context.Context, doc docvalue.Object) (docvalue.Object, error) {
		if _, bad := doc["bad"]; bad {
			return nil, errors.New("projection failed")
		}
		return docvalue.Object{"keep": doc["keep"]}, nil
	}
	var visited []docvalue.Object

	res, err := NewEngine(Options{}).InferDocuments(context.Background(), src, "c",
		WithProjection(project),
		WithDocumentVisitor(func(doc docvalue.Object) { visited = append(visited, doc) }),
	)
	require.NoError(t, err)

	require.Len(t, res.Fields, 1)
	assert.Equal(t, "keep", res.Fields[0].Path)
	assert.Equal(t, 1, res.SkippedDocuments)
	assert.Len(t, visited, 1)
}

func TestInferDocuments_CountFailureIsWarning(t *testing.T) {
	src := &fakeDocs{
		collections: map[string][]docvalue.Object{"c": {{"a": docvalue.Null()}}},
		countErr:    errors.New("not permitted"),
	}

	res, err := NewEngine(Options{}).InferDocuments(context.Background(), src, "c")
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
	assert.True(t, hasWarning(res.Warnings, "count unavailable"))
}

func TestInferDocuments_UnknownCollection(t *testing.T) {
	_, err := NewEngine(Options{}).InferDocuments(context.Background(), &fakeDocs{}, "nope")
	assert.Error(t, err)
}

func TestInferDocuments_Empty(t *testing.T) {
	src := &fakeDocs{collections: map[string][]docvalue.Object{"c": {}}}

	res, err := NewEngine(Options{}).InferDocuments(context.Background(), src, "c")
	require.NoError(t, err)
	assert.Empty(t, res.Fields)
	assert.Zero(t, res.SampleSize)
}

func TestInferKeys_NamedPassesShareExecution(t *testing.T) {
	release := make(chan struct{})
	var opened atomic.Int32
	src := cursorKeysFunc(func() sampler.Cursor[string] {
		opened.Add(1)
		first := true
		return sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
			if first {
				first = false
				<-release
			}
			return []string{"k:1"}, true, nil
		})
	})

	e := NewEngine(Options{})
	results := make(chan *KeyResult, 2)
	for range 2 {
		go func() {
			res, err := e.InferKeys(context.Background(), src, WithName("shared"))
			if err == nil {
				results <- res
			}
		}()
	}

	// Give both callers time to join the same flight.
	time.Sleep(50 * time.Millisecond)
	close(release)

	r1, r2 := <-results, <-results
	assert.Same(t, r1, r2)
	assert.EqualValues(t, 1, opened.Load())
}

func TestInferKeys_SharedPassOutlivesCanceledCaller(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var opened atomic.Int32
	src := cursorKeysFunc(func() sampler.Cursor[string] {
		opened.Add(1)
		close(started)
		return sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
			select {
			case <-release:
				return []string{"k:1", "k:2"}, true, nil
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		})
	})

	e := NewEngine(Options{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := e.InferKeys(ctxA, src, WithName("shared"))
		errA <- err
	}()
	<-started

	type outcome struct {
		res *KeyResult
		err error
	}
	doneB := make(chan outcome, 1)
	go func() {
		res, err := e.InferKeys(context.Background(), src, WithName("shared"))
		doneB <- outcome{res, err}
	}()

	// Give the second caller time to join the flight.
	time.Sleep(50 * time.Millisecond)
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, 2, b.res.TotalItemsScanned)
	assert.EqualValues(t, 1, opened.Load())
}

func TestOptions_SampleKeysClamped(t *testing.T) {
	e := NewEngine(Options{SampleKeys: 50})
	assert.Equal(t, MaxSampleKeys, e.Options().SampleKeys)

	e = NewEngine(Options{SampleKeys: 3})
	assert.Equal(t, 3, e.Options().SampleKeys)
}

func TestPassTimeout(t *testing.T) {
	src := cursorKeys(sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}))

	_, err := NewEngine(Options{PassTimeout: 20 * time.Millisecond}).InferKeys(context.Background(), src)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// cursorKeys serves the same cursor on every open.
func cursorKeys(cur sampler.Cursor[string]) KeySource {
	return cursorKeysFunc(func() sampler.Cursor[string] { return cur })
}

type cursorKeysFunc func() sampler.Cursor[string]

func (f cursorKeysFunc) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	return f(), nil
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

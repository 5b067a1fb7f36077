package connector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

// setupSQLite creates a temporary key/value database.
func setupSQLite(t *testing.T, rows map[string]any) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kv.db")
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v)`)
	require.NoError(t, err)
	for k, v := range rows {
		_, err = db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
	return path
}

func openTestSQLite(t *testing.T, rows map[string]any) *SQLiteStore {
	t.Helper()

	cfg := config.StoreConfig{
		Name:        "kv",
		Kind:        config.KindSQLite,
		Path:        setupSQLite(t, rows),
		Table:       "kv",
		KeyColumn:   "k",
		ValueColumn: "v",
	}
	s, err := Open(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	store, ok := s.(*SQLiteStore)
	require.True(t, ok)
	return store
}

func TestSQLiteStore_Keys(t *testing.T) {
	rows := map[string]any{}
	for _, k := range []string{"user:1", "user:2", "user:3", "order:9", "flag"} {
		rows[k] = "x"
	}
	store := openTestSQLite(t, rows)

	assert.Equal(t, "kv", store.Name())
	assert.Equal(t, LayoutFlat, store.Layout())

	cur, err := store.Keys(context.Background(), 2)
	require.NoError(t, err)

	sample, err := sampler.Collect(context.Background(), cur, sampler.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{"flag", "order:9", "user:1", "user:2", "user:3"}, sample.Items)
	assert.Equal(t, sampler.StopExhausted, sample.StopReason)
	assert.Equal(t, 3, sample.Iterations)
}

func TestSQLiteStore_KeysItemCap(t *testing.T) {
	rows := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		rows[k] = 1
	}
	store := openTestSQLite(t, rows)

	cur, err := store.Keys(context.Background(), 2)
	require.NoError(t, err)

	sample, err := sampler.Collect(context.Background(), cur, sampler.Limits{MaxItems: 3, MaxIterations: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sample.Items)
	assert.Equal(t, sampler.StopItemCap, sample.StopReason)
}

func TestSQLiteStore_FetchValue(t *testing.T) {
	store := openTestSQLite(t, map[string]any{
		"json-object": `{"theme":"dark"}`,
		"json-array":  `[1,2]`,
		"plain-text":  "hello world",
		"trailing":    "123abc",
		"int":         42,
		"real":        1.5,
		"blob":        []byte{0x00, 0x01},
		"null":        nil,
	})

	tests := []struct {
		key  string
		want typetag.Tag
	}{
		{"json-object", typetag.Object},
		{"json-array", typetag.Array},
		{"plain-text", typetag.String},
		{"trailing", typetag.String},
		{"int", typetag.Integer},
		{"real", typetag.Float},
		{"blob", typetag.Object},
		{"null", typetag.Null},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, err := store.FetchValue(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typetag.Of(v))
		})
	}

	_, err := store.FetchValue(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSQLiteValue(t *testing.T) {
	v := sqliteValue("text", []byte(`{"a":1}`))
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, docvalue.KindNumber, obj["a"].Kind())

	assert.Equal(t, docvalue.KindString, sqliteValue("text", "not json").Kind())
	assert.Equal(t, docvalue.KindBinary, sqliteValue("blob", []byte("x")).Kind())
	assert.Equal(t, docvalue.KindNumber, sqliteValue("integer", int64(3)).Kind())
}

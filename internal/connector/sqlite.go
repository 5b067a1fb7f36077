package connector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// SQLiteStore treats one key/value table of a SQLite database as a flat
// keyspace. Values are fetched for type classification; text values holding
// JSON are classified by their decoded shape.
type SQLiteStore struct {
	base
	db *sqlx.DB

	keysQuery      string
	firstKeysQuery string
	valueQuery     string
}

func openSQLite(ctx context.Context, cfg config.StoreConfig, _ Options) (Store, error) {
	db, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragma: %w", err)
	}
	return NewSQLiteStore(cfg.Name, db, cfg.Table, cfg.KeyColumn, cfg.ValueColumn), nil
}

// NewSQLiteStore wraps an open database. Table and column names must already
// be validated identifiers.
func NewSQLiteStore(name string, db *sqlx.DB, table, keyColumn, valueColumn string) *SQLiteStore {
	return &SQLiteStore{
		base: base{name: name, kind: config.KindSQLite},
		db:   db,
		firstKeysQuery: fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s LIMIT ?`,
			keyColumn, table, keyColumn),
		keysQuery: fmt.Sprintf(`SELECT %s FROM %s WHERE %s > ? ORDER BY %s LIMIT ?`,
			keyColumn, table, keyColumn, keyColumn),
		valueQuery: fmt.Sprintf(`SELECT typeof(%s), %s FROM %s WHERE %s = ?`,
			valueColumn, valueColumn, table, keyColumn),
	}
}

// Keys returns a keyset-paginated cursor ordered by key. A short page ends
// the iteration.
func (s *SQLiteStore) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	limit := max(batchHint, 1)
	var (
		last    string
		started bool
	)
	return sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		var keys []string
		var err error
		if started {
			err = s.db.SelectContext(ctx, &keys, s.keysQuery, last, limit)
		} else {
			err = s.db.SelectContext(ctx, &keys, s.firstKeysQuery, limit)
		}
		if err != nil {
			return nil, false, fmt.Errorf("listing keys: %w", err)
		}
		started = true
		if len(keys) > 0 {
			last = keys[len(keys)-1]
		}
		return keys, len(keys) < limit, nil
	}), nil
}

// FetchValue loads the value stored under key.
func (s *SQLiteStore) FetchValue(ctx context.Context, key string) (docvalue.Value, error) {
	var (
		storage string
		raw     any
	)
	err := s.db.QueryRowxContext(ctx, s.valueQuery, key).Scan(&storage, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docvalue.Value{}, fmt.Errorf("key %q no longer exists", key)
	}
	if err != nil {
		return docvalue.Value{}, fmt.Errorf("fetching value of %q: %w", key, err)
	}
	return sqliteValue(storage, raw), nil
}

// sqliteValue converts a scanned column using its storage class.
func sqliteValue(storage string, raw any) docvalue.Value {
	switch storage {
	case "null":
		return docvalue.Null()
	case "text":
		var text []byte
		switch v := raw.(type) {
		case string:
			text = []byte(v)
		case []byte:
			text = v
		}
		if json.Valid(text) {
			if v, err := docvalue.ParseJSON(text); err == nil {
				return v
			}
		}
		return docvalue.String(string(text))
	case "blob":
		if b, ok := raw.([]byte); ok {
			return docvalue.Binary(b)
		}
	}
	return docvalue.FromAny(raw)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

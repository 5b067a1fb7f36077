package connector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

const (
	jsonColumnsQuery = `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND data_type IN ('json', 'jsonb')
		ORDER BY table_name, column_name`

	reltuplesQuery = `
		SELECT c.reltuples::bigint
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2`
)

// PostgresStore exposes every json/jsonb column of a schema as a document
// collection named "table.column".
type PostgresStore struct {
	base
	db         *sqlx.DB
	schema     string
	sampleSize int
}

type jsonColumn struct {
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
}

func (c jsonColumn) name() string { return c.Table + "." + c.Column }

func openPostgres(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	return &PostgresStore{
		base:       base{name: cfg.Name, kind: config.KindPostgres},
		db:         db,
		schema:     cfg.Schema,
		sampleSize: opts.SampleSize,
	}, nil
}

func (s *PostgresStore) jsonColumns(ctx context.Context) ([]jsonColumn, error) {
	var cols []jsonColumn
	if err := s.db.SelectContext(ctx, &cols, jsonColumnsQuery, s.schema); err != nil {
		return nil, fmt.Errorf("listing json columns: %w", err)
	}
	return cols, nil
}

// Collections lists the json/jsonb columns of the schema.
func (s *PostgresStore) Collections(ctx context.Context) ([]string, error) {
	cols, err := s.jsonColumns(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name()
	}
	return names, nil
}

// resolve checks collection against the live catalog so that only real
// identifiers reach the query text.
func (s *PostgresStore) resolve(ctx context.Context, collection string) (jsonColumn, error) {
	cols, err := s.jsonColumns(ctx)
	if err != nil {
		return jsonColumn{}, err
	}
	for _, c := range cols {
		if c.name() == collection {
			return c, nil
		}
	}
	return jsonColumn{}, fmt.Errorf("collection %q: no json column with that name in schema %q", collection, s.schema)
}

// Documents streams non-null values of the column through one query. Values
// that are not JSON objects are emitted as nil.
func (s *PostgresStore) Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error) {
	col, err := s.resolve(ctx, collection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s::text FROM %s.%s WHERE %s IS NOT NULL LIMIT $1`,
		quoteIdent(col.Column), quoteIdent(s.schema), quoteIdent(col.Table), quoteIdent(col.Column))
	rows, err := s.db.QueryxContext(ctx, query, s.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}

	batchSize := max(batchHint, 1)
	cur := &sampler.ClosingCursor[docvalue.Object]{CloseFunc: rows.Close}
	cur.NextFunc = func(ctx context.Context) ([]docvalue.Object, bool, error) {
		batch := make([]docvalue.Object, 0, batchSize)
		for len(batch) < batchSize {
			if !rows.Next() {
				err := rows.Err()
				_ = cur.Close()
				if err != nil {
					return nil, false, fmt.Errorf("reading %s: %w", collection, err)
				}
				return batch, true, nil
			}
			var text string
			if err := rows.Scan(&text); err != nil {
				_ = cur.Close()
				return nil, false, fmt.Errorf("scanning %s: %w", collection, err)
			}
			doc, err := docvalue.ParseDocument([]byte(text))
			if err != nil {
				slog.Debug("skipping undecodable document",
					slog.String("collection", collection),
					slog.String("error", err.Error()),
				)
				doc = nil
			}
			batch = append(batch, doc)
		}
		return batch, false, nil
	}
	return cur, nil
}

// Count returns the planner's row estimate for the table, or 0 when the
// table was never analyzed.
func (s *PostgresStore) Count(ctx context.Context, collection string) (int64, error) {
	table, _, ok := strings.Cut(collection, ".")
	if !ok {
		return 0, fmt.Errorf("collection %q is not table.column", collection)
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, reltuplesQuery, s.schema, table); err != nil {
		return 0, fmt.Errorf("estimating rows of %s: %w", table, err)
	}
	return max(n, 0), nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

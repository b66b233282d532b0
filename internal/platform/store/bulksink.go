package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
)

// BulkSink is the high-throughput load path for wide batches of rows.
// CopyFrom streams via Postgres COPY; InsertRows is the parameterized-INSERT
// fallback for callers that can't stream a pgx.CopyFromSource
type BulkSink interface {
	CopyFrom(ctx context.Context, schema, table string, columns []string, src pgx.CopyFromSource) (int64, error)
	InsertRows(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error)
}

type pgBulkSink struct{ p *pg.PG }

func newPGBulkSink(p *pg.PG) *pgBulkSink { return &pgBulkSink{p: p} }

// CopyFrom streams rows into schema.table via the Postgres binary COPY
// protocol
func (b *pgBulkSink) CopyFrom(ctx context.Context, schema, table string, columns []string, src pgx.CopyFromSource) (int64, error) {
	return b.p.Pool.CopyFrom(ctx, pgx.Identifier{schema, table}, columns, src)
}

// InsertRows inserts rows one statement at a time via parameterized INSERTs,
// for targets where COPY isn't available (dry-run previews, small batches)
func (b *pgBulkSink) InsertRows(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s.%s (%s) VALUES (%s)`,
		pgx.Identifier{schema}.Sanitize(), pgx.Identifier{table}.Sanitize(),
		quoteIdents(columns), strings.Join(placeholders, ", "))

	var affected int64
	for _, row := range rows {
		ct, err := b.p.Pool.Exec(ctx, stmt, row...)
		if err != nil {
			return affected, err
		}
		affected += ct.RowsAffected()
	}
	return affected, nil
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pgx.Identifier{n}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// SliceCopySource adapts an in-memory [][]string into a pgx.CopyFromSource,
// the shape both the columnar and JSON bulk-load paths produce
type SliceCopySource struct {
	rows []([]string)
	idx  int
}

// NewSliceCopySource wraps rows (string cells, consistent with both bulk
// load paths never type-coercing values) for use with BulkSink.CopyFrom;
// an empty cell is sent as NULL
func NewSliceCopySource(rows [][]string) *SliceCopySource {
	return &SliceCopySource{rows: rows, idx: -1}
}

func (s *SliceCopySource) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

func (s *SliceCopySource) Values() ([]any, error) {
	row := s.rows[s.idx]
	out := make([]any, len(row))
	for i, v := range row {
		if v == "" {
			out[i] = nil // empty cell loads as NULL
			continue
		}
		out[i] = v
	}
	return out, nil
}

func (s *SliceCopySource) Err() error { return nil }

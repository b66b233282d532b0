package synth

import (
	"context"
	"strconv"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// checkColsAgainstMetadata reconciles an existing data table against the
// catalog: add any catalog column the table is missing, then widen any
// column narrower than the catalog now requires
func (s *Synthesizer) checkColsAgainstMetadata(ctx context.Context, tableName string) error {
	union, err := s.columnUnion(ctx, tableName)
	if err != nil {
		return err
	}
	isJSON, err := s.isJSONTable(ctx, tableName)
	if err != nil {
		return err
	}

	existing, err := s.existingColumns(ctx, tableName)
	if err != nil {
		return err
	}

	for _, c := range union {
		if isJSON && !columnShouldBeFirstClass(c.Name) {
			continue
		}
		have, tracked := existing[c.Name]
		switch {
		case !tracked:
			if err := s.addColumn(ctx, tableName, c); err != nil {
				return err
			}
		case c.Length > have:
			if err := s.widenColumn(ctx, tableName, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Synthesizer) existingColumns(ctx context.Context, tableName string) (map[string]int, error) {
	rows, err := s.st.PG.Query(ctx,
		`SELECT column_name, character_maximum_length FROM information_schema.columns
		  WHERE table_schema = $1 AND table_name = $2`,
		s.cfg.DataSchema, tableName,
	)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "reading existing columns for table %s", tableName)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var col string
		var maxLen *int
		if err := rows.Scan(&col, &maxLen); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scanning existing column row")
		}
		if maxLen != nil {
			out[col] = *maxLen
		} else {
			out[col] = -1 // non-varchar column (e.g. jsonb), never widened here
		}
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "iterating existing column rows")
	}
	return out, nil
}

func (s *Synthesizer) addColumn(ctx context.Context, tableName string, c columnDef) error {
	if s.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Str("column", c.Name).Msg("dry run: would add column")
		s.markModified(tableName)
		return nil
	}
	stmt := `ALTER TABLE ` + s.qualifiedData(tableName) + ` ADD COLUMN ` + columnClauseSQL(c)
	if _, err := s.st.PG.Exec(ctx, stmt); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "adding column %s to table %s", c.Name, tableName)
	}
	s.markModified(tableName)
	return nil
}

func (s *Synthesizer) widenColumn(ctx context.Context, tableName string, c columnDef) error {
	if s.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Str("column", c.Name).Int("to", c.Length).
			Msg("dry run: would widen column")
		s.markModified(tableName)
		return nil
	}
	stmt := `ALTER TABLE ` + s.qualifiedData(tableName) + ` ALTER COLUMN ` + pgx.Identifier{c.Name}.Sanitize() +
		` TYPE character varying(` + strconv.Itoa(c.Length) + `)`
	if _, err := s.st.PG.Exec(ctx, stmt); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "widening column %s on table %s to %d", c.Name, tableName, c.Length)
	}
	s.markModified(tableName)
	return nil
}

// IsJSONTable is the exported form of isJSONTable, for callers outside this
// package (the bulk-load stage) that need to pick a load strategy
func (s *Synthesizer) IsJSONTable(ctx context.Context, tableName string) (bool, error) {
	return s.isJSONTable(ctx, tableName)
}

// isJSONTable reports whether tableName stores its non-first-class columns
// packed into a "data" jsonb column, consulting and populating a
// per-process cache keyed off information_schema
func (s *Synthesizer) isJSONTable(ctx context.Context, tableName string) (bool, error) {
	if v, ok := s.jsonTables[tableName]; ok {
		return v, nil
	}
	if !s.jsonTablesInit {
		if err := s.populateJSONTableList(ctx); err != nil {
			return false, err
		}
	}
	return s.jsonTables[tableName], nil
}

func (s *Synthesizer) populateJSONTableList(ctx context.Context) error {
	rows, err := s.st.PG.Query(ctx,
		`SELECT table_name FROM information_schema.columns
		  WHERE table_schema = $1 AND column_name = 'data' AND data_type = 'jsonb'`,
		s.cfg.DataSchema,
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "populating JSON-table cache")
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "scanning JSON-table cache row")
		}
		s.jsonTables[name] = true
	}
	if err := rows.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "iterating JSON-table cache rows")
	}
	s.jsonTablesInit = true
	return nil
}

package synth

import (
	"context"
	"strconv"
	"strings"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

func columnClauseSQL(c columnDef) string {
	if c.IsJSON {
		return pgx.Identifier{c.Name}.Sanitize() + " jsonb"
	}
	length := c.Length
	if length < 1 {
		length = 1
	}
	return pgx.Identifier{c.Name}.Sanitize() + " character varying(" + strconv.Itoa(length) + ") collate pg_catalog.\"default\""
}

// createDataTable builds and executes CREATE TABLE for tableName from the
// catalog's current column union, then creates its indices
func (s *Synthesizer) createDataTable(ctx context.Context, tableName string) error {
	cols, isJSON, err := s.columnClauses(ctx, tableName)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return perr.Newf(perr.ErrorCodeValidation, "no catalog columns found for table %s, nothing to create", tableName)
	}

	clauses := make([]string, len(cols))
	for i, c := range cols {
		clauses[i] = columnClauseSQL(c)
	}
	stmt := `CREATE TABLE ` + s.qualifiedData(tableName) + ` (` + strings.Join(clauses, ", ") + `)`

	if s.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Bool("json_mode", isJSON).Msg("dry run: would create data table")
	} else {
		if _, err := s.st.PG.Exec(ctx, stmt); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "creating data table %s", tableName)
		}
		s.knownTables[tableName] = true
	}
	s.jsonTables[tableName] = isJSON
	s.markModified(tableName)
	return s.createOrReplaceIndices(ctx, tableName, cols, false)
}

// createOrReplaceIndices builds one index per index-like column (the same
// set in both JSON and columnar mode — JSON mode only changes which columns
// are materialized, not which are indexed), a covering index over all
// index-like columns when there's more than one, and a covering index over
// all-but-the-last index-like column when there are more than two
func (s *Synthesizer) createOrReplaceIndices(ctx context.Context, tableName string, cols []columnDef, replaceExisting bool) error {
	var firstClass []string
	for _, c := range cols {
		if c.IsJSON {
			continue
		}
		if columnShouldBeFirstClass(c.Name) || c.Name == "surveyid" {
			firstClass = append(firstClass, c.Name)
		}
	}

	for _, col := range firstClass {
		if err := s.ensureIndex(ctx, col+"_"+tableName, tableName, []string{col}, replaceExisting); err != nil {
			return err
		}
	}
	if len(firstClass) > 1 {
		if err := s.ensureIndex(ctx, "allidx_"+tableName, tableName, firstClass, replaceExisting); err != nil {
			return err
		}
	}
	if len(firstClass) > 2 {
		if err := s.ensureIndex(ctx, "twoidx_"+tableName, tableName, firstClass[:len(firstClass)-1], replaceExisting); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) ensureIndex(ctx context.Context, indexName, tableName string, cols []string, replaceExisting bool) error {
	exists, err := s.indexExists(ctx, indexName)
	if err != nil {
		return err
	}
	if exists && !replaceExisting {
		return nil
	}
	if s.cfg.DryRun {
		logger.C(ctx).Info().Str("index", indexName).Str("table", tableName).Msg("dry run: would create index")
		return nil
	}
	if exists {
		if _, err := s.st.PG.Exec(ctx, `DROP INDEX IF EXISTS `+s.qualifiedData(indexName)); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "dropping stale index %s", indexName)
		}
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	stmt := `CREATE INDEX ` + pgx.Identifier{indexName}.Sanitize() + ` ON ` + s.qualifiedData(tableName) +
		` (` + strings.Join(quoted, ", ") + `)`
	if _, err := s.st.PG.Exec(ctx, stmt); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "creating index %s on %s", indexName, tableName)
	}
	return nil
}

func (s *Synthesizer) indexExists(ctx context.Context, indexName string) (bool, error) {
	var n int
	err := s.st.PG.QueryRow(ctx,
		`SELECT COUNT(*) FROM pg_class WHERE relkind = 'i' AND relname = $1`, indexName,
	).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "checking existence of index %s", indexName)
	}
	return n > 0, nil
}

// Package bulkload pushes parsed DAT record tables into the warehouse's
// per-record data tables, dispatching between a columnar load path and a
// JSON-packed load path depending on how the table was synthesized
package bulkload

import (
	"context"
	"strings"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"

	"github.com/jackc/pgx/v5"
)

// jsonModeChecker is satisfied by *synth.Synthesizer; declared locally to
// avoid an import cycle between the two services packages
type jsonModeChecker interface {
	IsJSONTable(ctx context.Context, tableName string) (bool, error)
}

// Config names the warehouse schema a Loader writes to
type Config struct {
	DataSchema string
	DryRun     bool
}

// Loader inserts parsed DAT tables into the warehouse, choosing the
// columnar or JSON-packed path per table
type Loader struct {
	st    *store.Store
	synth jsonModeChecker
	cfg   Config
}

// New builds a Loader against the given store, synthesizer (for JSON-mode
// lookups), and warehouse schema
func New(st *store.Store, synth jsonModeChecker, cfg Config) *Loader {
	return &Loader{st: st, synth: synth, cfg: cfg}
}

func (l *Loader) qualified(table string) string {
	return pgx.Identifier{l.cfg.DataSchema, table}.Sanitize()
}

// LoadTable inserts rows (each a positional slice matching header) into
// tableName under surveyID, dispatching to the columnar or JSON-packed path
func (l *Loader) LoadTable(ctx context.Context, tableName, surveyID string, header []string, rows [][]string) (int64, error) {
	isJSON, err := l.synth.IsJSONTable(ctx, tableName)
	if err != nil {
		return 0, err
	}
	if isJSON {
		return l.loadJSONTable(ctx, tableName, surveyID, header, rows)
	}
	return l.loadStandardTable(ctx, tableName, surveyID, header, rows)
}

// loadStandardTable lowercases the header, injects surveyid as the leading
// column, and COPYs the result
func (l *Loader) loadStandardTable(ctx context.Context, tableName, surveyID string, header []string, rows [][]string) (int64, error) {
	cols := make([]string, len(header)+1)
	cols[0] = "surveyid"
	for i, h := range header {
		cols[i+1] = strings.ToLower(h)
	}

	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Str("survey_id", surveyID).Int("rows", len(rows)).
			Msg("dry run: would load standard table rows")
		return int64(len(rows)), nil
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(r)+1)
		row[0] = surveyID
		copy(row[1:], r)
		out[i] = row
	}

	n, err := l.st.Bulk.CopyFrom(ctx, l.cfg.DataSchema, tableName, cols, store.NewSliceCopySource(out))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "loading %d rows into %s for survey %s", len(rows), tableName, surveyID)
	}
	return n, nil
}

// loadJSONTable keeps index-like columns (name contains "idx", starts with
// "ix", or is caseid/mcaseid/hhid, the rule synth uses for the columns a
// JSON-mode table materializes) and surveyid as real columns and packs the rest into a single "data" jsonb column per row, with every
// value kept as a string so no cell is ever reinterpreted as a number
func (l *Loader) loadJSONTable(ctx context.Context, tableName, surveyID string, header []string, rows [][]string) (int64, error) {
	idxByLower := make([]string, len(header))
	idCols := map[int]bool{}
	var idColNames []string
	for i, h := range header {
		lh := strings.ToLower(h)
		idxByLower[i] = lh
		if strings.Contains(lh, "idx") || strings.HasPrefix(lh, "ix") ||
			lh == "caseid" || lh == "mcaseid" || lh == "hhid" {
			idCols[i] = true
			idColNames = append(idColNames, lh)
		}
	}

	cols := append([]string{"surveyid"}, idColNames...)
	cols = append(cols, "data")

	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Str("survey_id", surveyID).Int("rows", len(rows)).
			Msg("dry run: would load JSON-packed table rows")
		return int64(len(rows)), nil
	}

	out := make([][]string, len(rows))
	for ri, r := range rows {
		row := make([]string, 0, len(cols))
		row = append(row, surveyID)
		for i := range header {
			if idCols[i] {
				row = append(row, r[i])
			}
		}
		row = append(row, packJSON(idxByLower, idCols, r))
		out[ri] = row
	}

	n, err := l.st.Bulk.CopyFrom(ctx, l.cfg.DataSchema, tableName, cols, store.NewSliceCopySource(out))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "loading %d JSON rows into %s for survey %s", len(rows), tableName, surveyID)
	}
	return n, nil
}

// DropAndReload deletes every existing row for surveyID in tableName, then
// loads the fresh rows
func (l *Loader) DropAndReload(ctx context.Context, tableName, surveyID string, header []string, rows [][]string) error {
	if err := l.DeleteTableEntriesForSurvey(ctx, tableName, surveyID); err != nil {
		return err
	}
	_, err := l.LoadTable(ctx, tableName, surveyID, header, rows)
	return err
}

// DeleteTableEntriesForSurvey removes every row belonging to surveyID from
// tableName
func (l *Loader) DeleteTableEntriesForSurvey(ctx context.Context, tableName, surveyID string) error {
	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("table", tableName).Str("survey_id", surveyID).
			Msg("dry run: would delete existing survey rows")
		return nil
	}
	_, err := l.st.PG.Exec(ctx, `DELETE FROM `+l.qualified(tableName)+` WHERE surveyid = $1`, surveyID)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "deleting survey %s rows from %s", surveyID, tableName)
	}
	return nil
}

// DoesSurveyExistInTable reports whether tableName already holds rows for
// surveyID
func (l *Loader) DoesSurveyExistInTable(ctx context.Context, tableName, surveyID string) (bool, error) {
	var n int
	err := l.st.PG.QueryRow(ctx, `SELECT COUNT(*) FROM `+l.qualified(tableName)+` WHERE surveyid = $1`, surveyID).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "checking survey %s presence in %s", surveyID, tableName)
	}
	return n > 0, nil
}

// GetSurveyRowCount returns the number of rows tableName holds for surveyID
func (l *Loader) GetSurveyRowCount(ctx context.Context, tableName, surveyID string) (int64, error) {
	var n int64
	err := l.st.PG.QueryRow(ctx, `SELECT COUNT(*) FROM `+l.qualified(tableName)+` WHERE surveyid = $1`, surveyID).Scan(&n)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "counting survey %s rows in %s", surveyID, tableName)
	}
	return n, nil
}

package catalog

import (
	"context"
	"strconv"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// ensureColumnWidths widens any varchar column in table whose current
// character_maximum_length is smaller than the widest incoming value. It
// never shrinks a column. Columns without a length limit (text, or not yet
// present) are left alone
func (l *Loader) ensureColumnWidths(ctx context.Context, table string, widths map[string]int) error {
	if l.cfg.DryRun || len(widths) == 0 {
		return nil
	}

	rows, err := l.st.PG.Query(ctx,
		`SELECT column_name, character_maximum_length
		   FROM information_schema.columns
		  WHERE table_schema = $1 AND table_name = $2`,
		l.cfg.SpecSchema, table,
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "reading column widths for %s.%s", l.cfg.SpecSchema, table)
	}

	current := map[string]int{}
	for rows.Next() {
		var col string
		var maxLen *int
		if err := rows.Scan(&col, &maxLen); err != nil {
			rows.Close()
			return perr.Wrap(err, perr.ErrorCodeDB, "scanning column width row")
		}
		if maxLen != nil {
			current[col] = *maxLen
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return perr.Wrap(err, perr.ErrorCodeDB, "iterating column width rows")
	}
	rows.Close()

	for col, need := range widths {
		have, tracked := current[col]
		if !tracked || need <= have {
			continue
		}
		logger.C(ctx).Info().Str("table", table).Str("column", col).
			Int("from", have).Int("to", need).Msg("widening catalog column to fit incoming data")
		stmt := `ALTER TABLE ` + l.qualified(table) + ` ALTER COLUMN ` + pgx.Identifier{col}.Sanitize() +
			` TYPE character varying(` + strconv.Itoa(need) + `)`
		if _, err := l.st.PG.Exec(ctx, stmt); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "widening %s.%s.%s to %d", l.cfg.SpecSchema, table, col, need)
		}
	}
	return nil
}

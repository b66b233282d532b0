package synth

import (
	"context"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// columnDef is one column of a synthesized data table
type columnDef struct {
	Name   string
	Length int
	// Start is the widest catalog start position seen for this column,
	// used only to order the column set — never rendered into DDL
	Start int
	// IsJSON marks the single synthetic "data" jsonb column
	IsJSON bool
}

// tableShouldBeJSON reports whether tableName should be stored JSON-packed:
// either its catalog column union is too wide, or any catalog row for it
// carries a "country specific"/"cs:" label. Both LIKE clauses below are
// parenthesized together and scoped by recordname=?, so a "cs:"-labeled row
// in one record can't flip an unrelated table to JSON mode
func (s *Synthesizer) tableShouldBeJSON(ctx context.Context, tableName string, nCols int) (bool, error) {
	if nCols > maxColumnThreshold {
		return true, nil
	}
	var n int
	err := s.st.PG.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+s.qualifiedSpec(s.cfg.TableSpec)+`
		  WHERE recordname = $1
		    AND (lower(recordlabel) LIKE 'cs:%' OR lower(recordlabel) LIKE '%country specific%')`,
		tableName,
	).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "checking country-specific label for table %s", tableName)
	}
	return n > 0, nil
}

// columnUnion returns the widest width seen for each distinct column name
// declared for tableName across every survey in the catalog, ordered by the
// widest start position seen for that column. This ordering fixes the
// physical table layout and, in JSON mode, which first-class column falls
// last and so gets dropped from the twoidx covering index
func (s *Synthesizer) columnUnion(ctx context.Context, tableName string) ([]columnDef, error) {
	rows, err := s.st.PG.Query(ctx,
		`SELECT name, MAX(len), MAX(start) FROM `+s.qualifiedSpec(s.cfg.TableSpec)+`
		  WHERE recordname = $1 AND itemtype != 'RecordDescription'
		  GROUP BY name
		  ORDER BY MAX(start)`,
		tableName,
	)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "reading column union for table %s", tableName)
	}
	defer rows.Close()

	var cols []columnDef
	for rows.Next() {
		var c columnDef
		if err := rows.Scan(&c.Name, &c.Length, &c.Start); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scanning column union row")
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "iterating column union rows")
	}
	return cols, nil
}

// columnClauses computes the full column set for tableName: a synthetic
// leading "surveyid" column always, plus either every catalog column
// (standard mode) or just the first-class columns and a trailing synthetic
// "data" jsonb column (JSON mode)
func (s *Synthesizer) columnClauses(ctx context.Context, tableName string) ([]columnDef, bool, error) {
	union, err := s.columnUnion(ctx, tableName)
	if err != nil {
		return nil, false, err
	}
	isJSON, err := s.tableShouldBeJSON(ctx, tableName, len(union))
	if err != nil {
		return nil, false, err
	}

	cols := []columnDef{{Name: "surveyid", Length: 3}}
	if !isJSON {
		cols = append(cols, union...)
		return cols, false, nil
	}

	for _, c := range union {
		if columnShouldBeFirstClass(c.Name) {
			cols = append(cols, c)
		}
	}
	cols = append(cols, columnDef{Name: "data", IsJSON: true})
	return cols, true, nil
}

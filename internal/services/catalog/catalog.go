// Package catalog maintains the two warehouse metadata tables —
// tablespec and valuespec — that describe every survey's record/item/value
// structure
package catalog

import (
	"context"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"

	"github.com/jackc/pgx/v5"
)

// tableSpecColumns and valueSpecColumns are the warehouse columns kept from
// the wider intermediate CSVs — a handful of dictionary-only fields
// (ZeroFill, DecimalChar, Decimal, Occurrences) never make it into the
// catalog tables, since nothing downstream of the catalog reads them
var tableSpecColumns = []string{
	"itemtype", "recordname", "recordtypevalue", "recordlabel", "name",
	"label", "start", "len", "fmetype", "surveyid", "filecode",
}

var valueSpecColumns = []string{
	"col_name", "value", "value_desc", "value_type", "surveyid", "filecode",
}

// Config names the warehouse objects the Loader targets
type Config struct {
	SpecSchema     string
	TableSpecTable string
	ValueSpecTable string
	DryRun         bool
}

// Loader maintains tablespec/valuespec against one warehouse connection
type Loader struct {
	st  *store.Store
	cfg Config
}

// New builds a Loader against the given store and warehouse object names
func New(st *store.Store, cfg Config) *Loader {
	return &Loader{st: st, cfg: cfg}
}

func (l *Loader) qualified(table string) string {
	return pgx.Identifier{l.cfg.SpecSchema, table}.Sanitize()
}

// AnyInDB reports whether any tablespec/valuespec rows already exist for
// (surveyID, fileType) — a survey loaded exactly once must read as present
func (l *Loader) AnyInDB(ctx context.Context, surveyID, fileType string, forValues bool) (bool, error) {
	table := l.cfg.TableSpecTable
	if forValues {
		table = l.cfg.ValueSpecTable
	}
	var n int
	err := l.st.PG.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+l.qualified(table)+` WHERE surveyid = $1 AND filecode ILIKE $2`,
		surveyID, "__"+fileType+"__",
	).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "counting %s rows for survey %s/%s", table, surveyID, fileType)
	}
	return n > 0, nil
}

// SurveyVersion returns the maximum filecode version suffix present for
// (surveyID, fileType), or NoVersion() when nothing matches. Warns (doesn't
// error) when more than one distinct filecode is present
func (l *Loader) SurveyVersion(ctx context.Context, surveyID, fileType string, forValues bool) (specmodel.VersionLookup, error) {
	table := l.cfg.TableSpecTable
	if forValues {
		table = l.cfg.ValueSpecTable
	}
	rows, err := l.st.PG.Query(ctx,
		`SELECT DISTINCT filecode FROM `+l.qualified(table)+` WHERE surveyid = $1 AND filecode ILIKE $2`,
		surveyID, "__"+fileType+"__",
	)
	if err != nil {
		return specmodel.VersionLookup{}, perr.Wrapf(err, perr.ErrorCodeDB, "looking up survey version for %s/%s", surveyID, fileType)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return specmodel.VersionLookup{}, perr.Wrap(err, perr.ErrorCodeDB, "scanning filecode")
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return specmodel.VersionLookup{}, perr.Wrap(err, perr.ErrorCodeDB, "iterating filecodes")
	}

	if len(codes) == 0 {
		logger.C(ctx).Warn().Str("survey_id", surveyID).Str("file_type", fileType).
			Msg("no matching catalog metadata found for survey")
		return specmodel.NoVersion(), nil
	}

	max := codes[0]
	for _, c := range codes[1:] {
		if c > max {
			max = c
		}
	}
	if len(max) < 2 {
		return specmodel.VersionLookup{}, perr.Newf(perr.ErrorCodeValidation, "filecode %q too short to carry a version suffix", max)
	}
	isUnique := len(codes) == 1
	if !isUnique {
		logger.C(ctx).Warn().Str("survey_id", surveyID).Str("file_type", fileType).
			Int("distinct_filecodes", len(codes)).Msg("more than one metadata filecode found for survey, cleanup required")
	}
	return specmodel.VersionOf(max[len(max)-2:], isUnique), nil
}

// MultipleInDB checks whether a canary item (V001 for ir, MV001 for mr)
// appears more than once for surveyID in tablespec — a sign the survey was
// loaded twice without being cleaned up first
func (l *Loader) MultipleInDB(ctx context.Context, surveyID, fileType string) (bool, error) {
	canary := "V001"
	if strings.EqualFold(fileType, "mr") {
		canary = "MV001"
	}
	var n int
	err := l.st.PG.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+l.qualified(l.cfg.TableSpecTable)+` WHERE surveyid = $1 AND name = $2`,
		surveyID, canary,
	).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "checking canary %s for survey %s", canary, surveyID)
	}
	if n > 1 {
		logger.C(ctx).Warn().Str("survey_id", surveyID).Str("file_type", fileType).
			Int("count", n).Msg("survey appears to be loaded into the catalog multiple times")
		return true, nil
	}
	return false, nil
}

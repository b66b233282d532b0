package catalog

import (
	"context"
	"strconv"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
)

// LoadRecordSpecs inserts one tablespec row per rec, tagging each with
// surveyID. In dry-run mode this only logs intent
func (l *Loader) LoadRecordSpecs(ctx context.Context, surveyID string, recs []specmodel.RecordSpec) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err := l.ensureColumnWidths(ctx, l.cfg.TableSpecTable, recordSpecWidths(recs)); err != nil {
		return 0, err
	}
	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("survey_id", surveyID).Int("rows", len(recs)).
			Msg("dry run: would insert tablespec rows")
		return int64(len(recs)), nil
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			string(r.ItemType), r.RecordName, r.RecordTypeValue, r.RecordLabel,
			r.Name, r.Label, strconv.Itoa(r.Start), strconv.Itoa(r.Len),
			r.FMETYPE, surveyID, r.FileCode,
		}
	}
	n, err := l.st.Bulk.CopyFrom(ctx, l.cfg.SpecSchema, l.cfg.TableSpecTable, tableSpecColumns, store.NewSliceCopySource(rows))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "inserting %d tablespec rows for survey %s", len(recs), surveyID)
	}
	return n, nil
}

// LoadValueSpecs inserts one valuespec row per val, tagging each with
// surveyID
func (l *Loader) LoadValueSpecs(ctx context.Context, surveyID string, vals []specmodel.ValueSpec) (int64, error) {
	if len(vals) == 0 {
		return 0, nil
	}
	if err := l.ensureColumnWidths(ctx, l.cfg.ValueSpecTable, valueSpecWidths(vals)); err != nil {
		return 0, err
	}
	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("survey_id", surveyID).Int("rows", len(vals)).
			Msg("dry run: would insert valuespec rows")
		return int64(len(vals)), nil
	}

	rows := make([][]string, len(vals))
	for i, v := range vals {
		rows[i] = []string{
			v.Name, v.Value, v.ValueDesc, string(v.ValueType), surveyID, v.FileCode,
		}
	}
	n, err := l.st.Bulk.CopyFrom(ctx, l.cfg.SpecSchema, l.cfg.ValueSpecTable, valueSpecColumns, store.NewSliceCopySource(rows))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "inserting %d valuespec rows for survey %s", len(vals), surveyID)
	}
	return n, nil
}

// DropAndReload deletes any existing tablespec/valuespec rows for
// (surveyID, fileType) across every prior version, then loads the fresh
// rows. Always cleans before reloading rather than trusting a prior load
// left the tables consistent
func (l *Loader) DropAndReload(ctx context.Context, surveyID, fileType string, recs []specmodel.RecordSpec, vals []specmodel.ValueSpec) error {
	if err := l.deleteMetadataRows(ctx, l.cfg.TableSpecTable, surveyID, fileType); err != nil {
		return err
	}
	if err := l.deleteMetadataRows(ctx, l.cfg.ValueSpecTable, surveyID, fileType); err != nil {
		return err
	}
	if _, err := l.LoadRecordSpecs(ctx, surveyID, recs); err != nil {
		return err
	}
	if _, err := l.LoadValueSpecs(ctx, surveyID, vals); err != nil {
		return err
	}
	return nil
}

func (l *Loader) deleteMetadataRows(ctx context.Context, table, surveyID, fileType string) error {
	if l.cfg.DryRun {
		logger.C(ctx).Info().Str("survey_id", surveyID).Str("file_type", fileType).Str("table", table).
			Msg("dry run: would delete existing catalog rows")
		return nil
	}
	_, err := l.st.PG.Exec(ctx,
		`DELETE FROM `+l.qualified(table)+` WHERE surveyid = $1 AND filecode ILIKE $2`,
		surveyID, "%"+fileType+"%",
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "deleting prior %s rows for survey %s/%s", table, surveyID, fileType)
	}
	return nil
}

func recordSpecWidths(recs []specmodel.RecordSpec) map[string]int {
	w := map[string]int{}
	for _, r := range recs {
		grow(w, "recordname", r.RecordName)
		grow(w, "recordtypevalue", r.RecordTypeValue)
		grow(w, "recordlabel", r.RecordLabel)
		grow(w, "name", r.Name)
		grow(w, "label", r.Label)
		grow(w, "fmetype", r.FMETYPE)
	}
	return w
}

func valueSpecWidths(vals []specmodel.ValueSpec) map[string]int {
	w := map[string]int{}
	for _, v := range vals {
		grow(w, "col_name", v.Name)
		grow(w, "value", v.Value)
		grow(w, "value_desc", v.ValueDesc)
	}
	return w
}

func grow(w map[string]int, col, val string) {
	if n := len(val); n > w[col] {
		w[col] = n
	}
}

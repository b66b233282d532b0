package dcf

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// recordSpecHeader and friends fix the column order of the three
// intermediate CSVs; the record spec CSV is read back by dat.LoadIndex
// when the DAT file is parsed
var recordSpecHeader = []string{
	"ItemType", "FileCode", "RecordName", "RecordTypeValue", "RecordLabel",
	"Name", "Label", "Start", "Len", "Occurrences", "ZeroFill", "DecimalChar",
	"Decimal", "FMETYPE",
}

var valueSpecHeader = []string{"FileCode", "Name", "Value", "ValueDesc", "ValueType"}

var relationSpecHeader = []string{
	"FileCode", "RelName", "PrimaryTable", "PrimaryLink", "SecondaryTable", "SecondaryLink",
}

// WriteRecordSpecCSV writes the FlatRecordSpec.csv rows of a Result
func WriteRecordSpecCSV(w io.Writer, rows []specmodel.RecordSpec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordSpecHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "writing FlatRecordSpec header")
	}
	for _, r := range rows {
		rec := []string{
			string(r.ItemType), r.FileCode, r.RecordName, r.RecordTypeValue, r.RecordLabel,
			r.Name, r.Label, strconv.Itoa(r.Start), strconv.Itoa(r.Len), strconv.Itoa(r.Occurrences),
			strconv.FormatBool(r.ZeroFill), r.DecimalChar, strconv.Itoa(r.Decimal), r.FMETYPE,
		}
		if err := cw.Write(rec); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "writing FlatRecordSpec row %s.%s", r.RecordName, r.Name)
		}
	}
	cw.Flush()
	return perr.WrapIf(cw.Error(), perr.ErrorCodeDB, "flushing FlatRecordSpec.csv")
}

// WriteValueSpecCSV writes the FlatValuesSpec.csv rows of a Result
func WriteValueSpecCSV(w io.Writer, rows []specmodel.ValueSpec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(valueSpecHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "writing FlatValuesSpec header")
	}
	for _, v := range rows {
		rec := []string{v.FileCode, v.Name, v.Value, v.ValueDesc, string(v.ValueType)}
		if err := cw.Write(rec); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "writing FlatValuesSpec row %s=%s", v.Name, v.Value)
		}
	}
	cw.Flush()
	return perr.WrapIf(cw.Error(), perr.ErrorCodeDB, "flushing FlatValuesSpec.csv")
}

// WriteRelationSpecCSV writes the RelationshipsSpec.csv rows of a Result
func WriteRelationSpecCSV(w io.Writer, rows []specmodel.RelationSpec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(relationSpecHeader); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "writing RelationshipsSpec header")
	}
	for _, r := range rows {
		rec := []string{r.FileCode, r.RelName, r.PrimaryTable, r.PrimaryLink, r.SecondaryTable, r.SecondaryLink}
		if err := cw.Write(rec); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "writing RelationshipsSpec row %s", r.RelName)
		}
	}
	cw.Flush()
	return perr.WrapIf(cw.Error(), perr.ErrorCodeDB, "flushing RelationshipsSpec.csv")
}

// WriteAll writes all three intermediate CSVs for one survey's Result to the
// given writers: record spec, value spec, then relationships
func WriteAll(recordW, valueW, relationW io.Writer, res Result) error {
	if err := WriteRecordSpecCSV(recordW, res.RecordSpecs); err != nil {
		return err
	}
	if err := WriteValueSpecCSV(valueW, res.ValueSpecs); err != nil {
		return err
	}
	return WriteRelationSpecCSV(relationW, res.Relations)
}

// Package dat parses CSPro .DAT fixed-width datafiles into per-record-type
// CSVs, using the RecordSpec table a prior dcf.Parse produced to know where
// each record type's fields live in a line
package dat

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// field is one column's position within a DAT line, 1-based per the DCF
// Start/Len convention
type field struct {
	name       string
	recordName string
	start      int
	length     int
}

// noTrimFields are the columns whose fixed-width padding must survive
// verbatim, since household/person id referential integrity depends on the
// exact padded string
var noTrimFields = map[string]bool{"CASEID": true, "HHID": true}

// Index is the compiled lookup a DAT parse runs against: where the record
// type selector lives in a line, and which fields (sorted by start) belong
// to each record_type_value
type Index struct {
	rtStart  int
	rtLength int
	byType   map[string][]field
}

// BuildIndex compiles an Index directly from an in-memory RecordSpec slice
// (the typical path when dcf.Parse and dat.Parse run in the same process)
func BuildIndex(specs []specmodel.RecordSpec) (*Index, error) {
	idx := &Index{byType: map[string][]field{}}
	haveRoot := false

	byType := map[string][]field{}
	for _, s := range specs {
		if s.ItemType == specmodel.RecordDescription {
			idx.rtStart = s.Start
			idx.rtLength = s.Len
			haveRoot = true
			continue
		}
		byType[s.RecordTypeValue] = append(byType[s.RecordTypeValue], field{
			name:       s.Name,
			recordName: s.RecordName,
			start:      s.Start,
			length:     s.Len,
		})
	}
	if !haveRoot {
		return nil, perr.New(perr.ErrorCodeValidation, "record spec has no RecordDescription row to locate the record type column")
	}

	for rt, fields := range byType {
		sort.Slice(fields, func(i, j int) bool { return fields[i].start < fields[j].start })
		for _, f := range fields[1:] {
			if f.recordName != fields[0].recordName {
				return nil, perr.Newf(perr.ErrorCodeValidation, "record type %q has fields from more than one record (%q, %q)", rt, fields[0].recordName, f.recordName)
			}
		}
		idx.byType[rt] = fields
	}
	return idx, nil
}

// LoadIndex reads a FlatRecordSpec.csv (as written by dcf.WriteRecordSpecCSV)
// and compiles an Index from it, for use when the DCF and DAT parsing stages
// run as separate processes
func LoadIndex(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "reading FlatRecordSpec.csv")
	}
	if len(rows) < 1 {
		return nil, perr.New(perr.ErrorCodeValidation, "FlatRecordSpec.csv has no header row")
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[h] = i
	}
	required := []string{"ItemType", "RecordName", "RecordTypeValue", "Name", "Start", "Len"}
	for _, c := range required {
		if _, ok := col[c]; !ok {
			return nil, perr.Newf(perr.ErrorCodeValidation, "FlatRecordSpec.csv missing required column %q", c)
		}
	}

	specs := make([]specmodel.RecordSpec, 0, len(rows)-1)
	for _, row := range rows[1:] {
		start, err := strconv.Atoi(row[col["Start"]])
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "non-numeric Start in FlatRecordSpec.csv: %q", row[col["Start"]])
		}
		length, err := strconv.Atoi(row[col["Len"]])
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "non-numeric Len in FlatRecordSpec.csv: %q", row[col["Len"]])
		}
		specs = append(specs, specmodel.RecordSpec{
			ItemType:        specmodel.ItemType(row[col["ItemType"]]),
			RecordName:      row[col["RecordName"]],
			RecordTypeValue: row[col["RecordTypeValue"]],
			Name:            row[col["Name"]],
			Start:           start,
			Len:             length,
		})
	}
	return BuildIndex(specs)
}

// RecordTypes reports the record type values the index knows about, sorted
// for stable iteration order
func (idx *Index) RecordTypes() []string {
	out := make([]string, 0, len(idx.byType))
	for rt := range idx.byType {
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}

package dat

import (
	"bufio"
	"io"
	"strings"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
)

// Table is one record type's collected rows, ready to be written as a CSV
type Table struct {
	RecordName string
	Header     []string
	Rows       [][]string
}

// Parse reads a decoded DAT line stream against idx and returns one Table
// per record type that occurred in the file, keyed by record_type_value.
// Unrecognized record types are logged and skipped rather than failing the
// whole file
func Parse(r io.Reader, idx *Index) (map[string]*Table, error) {
	tables := map[string]*Table{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if err := processLine(line, idx, tables, lineNo); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "reading dat file")
	}
	return tables, nil
}

func processLine(line string, idx *Index, tables map[string]*Table, lineNo int) error {
	rtEnd := idx.rtStart - 1 + idx.rtLength
	if len(line) < rtEnd {
		logger.Get().Warn().Int("line", lineNo).Msg("dat line shorter than record-type selector, skipping")
		return nil
	}
	recordType := line[idx.rtStart-1 : rtEnd]

	fields, ok := idx.byType[recordType]
	if !ok {
		logger.Get().Warn().Int("line", lineNo).Str("record_type", recordType).
			Msg("record type not found in specification, skipping line")
		return nil
	}

	row := make([]string, len(fields))
	for i, f := range fields {
		end := f.start - 1 + f.length
		if end > len(line) {
			return perr.Newf(perr.ErrorCodeValidation, "line %d: field %q (start %d, len %d) exceeds line length %d", lineNo, f.name, f.start, f.length, len(line))
		}
		cell := line[f.start-1 : end]
		if !noTrimFields[f.name] {
			cell = strings.TrimSpace(cell)
		}
		row[i] = cell
	}

	t, ok := tables[recordType]
	if !ok {
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = f.name
		}
		t = &Table{RecordName: fields[0].recordName, Header: header}
		tables[recordType] = t
	} else if len(row) != len(t.Header) {
		return perr.Newf(perr.ErrorCodeValidation, "record type %q: row at line %d has %d fields, expected %d", recordType, lineNo, len(row), len(t.Header))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

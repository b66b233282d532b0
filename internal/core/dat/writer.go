package dat

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// TableFilename returns the output filename for one record's data CSV,
// "<stem>.<record_name>.csv"
func TableFilename(stem, recordName string) string {
	return fmt.Sprintf("%s.%s.csv", stem, recordName)
}

// WriteTableCSV writes one Table's header and rows
func WriteTableCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "writing header for %s", t.RecordName)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "writing row for %s", t.RecordName)
		}
	}
	cw.Flush()
	return perr.WrapIf(cw.Error(), perr.ErrorCodeDB, fmt.Sprintf("flushing %s.csv", t.RecordName))
}

// WriteAll writes every table in tables to "<outDir>/<stem>.<record>.csv"
func WriteAll(outDir, stem string, tables map[string]*Table) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "creating output directory")
	}
	for _, t := range tables {
		path := filepath.Join(outDir, TableFilename(stem, t.RecordName))
		f, err := os.Create(path)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "creating %s", path)
		}
		err = WriteTableCSV(f, t)
		closeErr := f.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return perr.Wrap(closeErr, perr.ErrorCodeDB, "closing "+path)
		}
	}
	return nil
}

// AlreadyParsed reports whether this survey's REC01 output already exists,
// letting a re-run skip a file it has already parsed
func AlreadyParsed(outDir, stem string) bool {
	_, err := os.Stat(filepath.Join(outDir, TableFilename(stem, "REC01")))
	return err == nil
}

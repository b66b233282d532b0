// Command dhsingest-dat parses a CSPro fixed-width data (.dat) file into
// one CSV per record type, using a FlatRecordSpec.csv produced by
// dhsingest-dcf to locate field boundaries
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/core/dat"
	"github.com/harry-gibson/DHS-To-Database/internal/core/encoding"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
)

func main() {
	l := logger.Get()

	var (
		fIn        = flag.String("in", "", "path to the .dat data file")
		fRecordCSV = flag.String("recordspec", "", "path to the FlatRecordSpec.csv produced by dhsingest-dcf")
		fOutDir    = flag.String("out", ".", "directory to write the per-record CSVs into")
		fForce     = flag.Bool("force", false, "reparse even if output CSVs already exist")
	)
	flag.Parse()

	if *fIn == "" || *fRecordCSV == "" {
		l.Fatal().Msg("missing -in or -recordspec")
	}

	stem := fileStem(*fIn)
	if !*fForce && dat.AlreadyParsed(*fOutDir, stem) {
		l.Info().Str("stem", stem).Msg("data file already parsed, skipping (use -force to reparse)")
		return
	}

	specF, err := os.Open(*fRecordCSV)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fRecordCSV).Msg("could not open record spec")
	}
	defer specF.Close()

	idx, err := dat.LoadIndex(specF)
	if err != nil {
		l.Fatal().Err(err).Msg("building record index failed")
	}

	dataF, charset, err := encoding.OpenDetected(*fIn)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fIn).Msg("could not open data file")
	}
	defer dataF.Close()
	l.Debug().Str("path", *fIn).Str("charset", charset).Msg("detected data file encoding")

	tables, err := dat.Parse(dataF, idx)
	if err != nil {
		l.Fatal().Err(err).Msg("parsing data file failed")
	}

	if err := dat.WriteAll(*fOutDir, stem, tables); err != nil {
		l.Fatal().Err(err).Msg("writing per-record CSVs failed")
	}

	l.Info().Str("stem", stem).Int("tables", len(tables)).Msg("data file parsed")
}

func fileStem(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

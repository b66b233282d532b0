// Command dhsingest-dcf parses a CSPro dictionary (.dcf) file into the three
// intermediate CSVs (FlatRecordSpec, FlatValuesSpec, RelationshipsSpec) that
// the catalog stage loads into the warehouse
package main

import (
	"flag"
	"os"

	"github.com/harry-gibson/DHS-To-Database/internal/core/dcf"
	"github.com/harry-gibson/DHS-To-Database/internal/core/encoding"
	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/config"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
)

func main() {
	root := config.New()
	l := logger.Get()

	var (
		fIn     = flag.String("in", "", "path to the .dcf dictionary file")
		fOutDir = flag.String("out", ".", "directory to write the intermediate CSVs into")
		fExpand = flag.String("expand-ranges", root.MayExpansionPolicy("DCF_EXPAND_RANGES", config.ExpandAll),
			"range expansion policy: None | Multiple | All")
		fLimit = flag.Int("expand-limit", root.MayInt("DCF_EXPAND_LIMIT", 10000),
			"max range size eligible for expansion")
	)
	flag.Parse()

	if *fIn == "" {
		l.Fatal().Msg("missing -in")
	}

	stem := fileStem(*fIn)
	survey, err := specmodel.ParseSurveyStem(stem)
	if err != nil {
		l.Fatal().Err(err).Str("stem", stem).Msg("could not parse survey filename")
	}

	f, charset, err := encoding.OpenDetected(*fIn)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fIn).Msg("could not open dictionary file")
	}
	defer f.Close()
	l.Debug().Str("path", *fIn).Str("charset", charset).Msg("detected dictionary file encoding")

	opts := dcf.Options{ExpandRanges: specmodel.ExpansionPolicy(*fExpand), RangeExpansionLimit: *fLimit}
	res, err := dcf.Parse(f, survey, opts)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fIn).Msg("parsing dictionary failed")
	}

	if err := os.MkdirAll(*fOutDir, 0o755); err != nil {
		l.Fatal().Err(err).Str("dir", *fOutDir).Msg("could not create output directory")
	}

	recordW, err := os.Create(*fOutDir + "/" + stem + ".FlatRecordSpec.csv")
	if err != nil {
		l.Fatal().Err(err).Msg("could not create FlatRecordSpec.csv")
	}
	defer recordW.Close()
	valueW, err := os.Create(*fOutDir + "/" + stem + ".FlatValuesSpec.csv")
	if err != nil {
		l.Fatal().Err(err).Msg("could not create FlatValuesSpec.csv")
	}
	defer valueW.Close()
	relW, err := os.Create(*fOutDir + "/" + stem + ".RelationshipsSpec.csv")
	if err != nil {
		l.Fatal().Err(err).Msg("could not create RelationshipsSpec.csv")
	}
	defer relW.Close()

	if err := dcf.WriteAll(recordW, valueW, relW, res); err != nil {
		l.Fatal().Err(err).Msg("writing intermediate CSVs failed")
	}

	l.Info().Str("survey_id", survey.ID).Int("records", len(res.RecordSpecs)).
		Int("values", len(res.ValueSpecs)).Int("relations", len(res.Relations)).
		Msg("dictionary parsed")
}

func fileStem(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

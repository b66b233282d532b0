// Command dhsingest-load loads a per-record CSV (produced by dhsingest-dat)
// into its warehouse data table, preparing the table against the catalog
// first and choosing the columnar or JSON-packed load path automatically
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"

	"github.com/harry-gibson/DHS-To-Database/internal/platform/config"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
	"github.com/harry-gibson/DHS-To-Database/internal/services/bulkload"
	"github.com/harry-gibson/DHS-To-Database/internal/services/synth"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("DHSINGEST_PGSQL_")
	synCfg := root.Prefix("DHSINGEST_SYNTH_")
	loadCfg := root.Prefix("DHSINGEST_LOAD_")

	l := logger.Get()
	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		fIn       = flag.String("in", "", "path to the per-record CSV produced by dhsingest-dat")
		fRecord   = flag.String("record", "", "record name / data table, e.g. REC01")
		fSurveyID = flag.String("survey", "", "survey id, e.g. 511")
		fDryRun   = flag.Bool("dry-run", loadCfg.MayBool("DRY_RUN", true), "log intent without writing")
	)
	flag.Parse()

	if *fIn == "" || *fRecord == "" || *fSurveyID == "" {
		l.Fatal().Msg("missing -in, -record, or -survey")
	}

	header, rows, err := readCSV(*fIn)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fIn).Msg("reading input CSV failed")
	}

	dataSchema := synCfg.MayString("DATA_SCHEMA", "public")
	sy := synth.New(st, synth.Config{
		DataSchema: dataSchema,
		SpecSchema: synCfg.MayString("SPEC_SCHEMA", "public"),
		TableSpec:  synCfg.MayString("TABLESPEC_TABLE", "tablespec"),
		DryRun:     *fDryRun,
	})

	ctx := context.Background()
	if err := sy.PrepareTable(ctx, *fRecord); err != nil {
		l.Fatal().Err(err).Str("record", *fRecord).Msg("preparing data table failed")
	}

	ld := bulkload.New(st, sy, bulkload.Config{DataSchema: dataSchema, DryRun: *fDryRun})
	if err := ld.DropAndReload(ctx, *fRecord, *fSurveyID, header, rows); err != nil {
		l.Fatal().Err(err).Str("record", *fRecord).Str("survey_id", *fSurveyID).Msg("loading data table failed")
	}

	l.Info().Str("record", *fRecord).Str("survey_id", *fSurveyID).Int("rows", len(rows)).Msg("data table loaded")
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

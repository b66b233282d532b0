// Command dhsingest-catalog loads a survey's FlatRecordSpec/FlatValuesSpec
// CSVs (produced by dhsingest-dcf) into the warehouse's tablespec/valuespec
// catalog tables, reconciling against any prior version already loaded
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"strconv"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/config"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
	"github.com/harry-gibson/DHS-To-Database/internal/services/catalog"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("DHSINGEST_PGSQL_")
	catCfg := root.Prefix("DHSINGEST_CATALOG_")

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
		fSurveyID  = flag.String("survey", "", "survey id, e.g. 511")
		fFileType  = flag.String("filetype", "", "two-letter file type, e.g. ir")
		fRecordCSV = flag.String("recordspec", "", "path to FlatRecordSpec.csv")
		fValueCSV  = flag.String("valuespec", "", "path to FlatValuesSpec.csv")
		fDryRun    = flag.Bool("dry-run", catCfg.MayBool("DRY_RUN", true), "log intent without writing")
	)
	flag.Parse()

	if *fSurveyID == "" || *fFileType == "" || *fRecordCSV == "" {
		l.Fatal().Msg("missing -survey, -filetype, or -recordspec")
	}

	recs, err := readRecordSpecs(*fRecordCSV)
	if err != nil {
		l.Fatal().Err(err).Str("path", *fRecordCSV).Msg("reading FlatRecordSpec.csv failed")
	}
	var vals []specmodel.ValueSpec
	if *fValueCSV != "" {
		vals, err = readValueSpecs(*fValueCSV)
		if err != nil {
			l.Fatal().Err(err).Str("path", *fValueCSV).Msg("reading FlatValuesSpec.csv failed")
		}
	}

	ld := catalog.New(st, catalog.Config{
		SpecSchema:     catCfg.MayString("SCHEMA", "public"),
		TableSpecTable: catCfg.MayString("TABLESPEC_TABLE", "tablespec"),
		ValueSpecTable: catCfg.MayString("VALUESPEC_TABLE", "valuespec"),
		DryRun:         *fDryRun,
	})

	ctx := context.Background()
	if multi, err := ld.MultipleInDB(ctx, *fSurveyID, *fFileType); err != nil {
		l.Fatal().Err(err).Msg("checking for duplicate catalog load failed")
	} else if multi {
		l.Warn().Str("survey_id", *fSurveyID).Msg("survey appears loaded more than once already, reloading anyway")
	}

	if err := ld.DropAndReload(ctx, *fSurveyID, *fFileType, recs, vals); err != nil {
		l.Fatal().Err(err).Msg("catalog load failed")
	}

	l.Info().Str("survey_id", *fSurveyID).Str("file_type", *fFileType).
		Int("records", len(recs)).Int("values", len(vals)).Msg("catalog loaded")
}

func readRecordSpecs(path string) ([]specmodel.RecordSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := indexOf(header)

	var out []specmodel.RecordSpec
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		start, _ := strconv.Atoi(row[col["Start"]])
		length, _ := strconv.Atoi(row[col["Len"]])
		out = append(out, specmodel.RecordSpec{
			ItemType:        specmodel.ItemType(row[col["ItemType"]]),
			FileCode:        row[col["FileCode"]],
			RecordName:      row[col["RecordName"]],
			RecordTypeValue: row[col["RecordTypeValue"]],
			RecordLabel:     row[col["RecordLabel"]],
			Name:            row[col["Name"]],
			Label:           row[col["Label"]],
			Start:           start,
			Len:             length,
			FMETYPE:         row[col["FMETYPE"]],
		})
	}
	return out, nil
}

func readValueSpecs(path string) ([]specmodel.ValueSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := indexOf(header)

	var out []specmodel.ValueSpec
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		out = append(out, specmodel.ValueSpec{
			FileCode:  row[col["FileCode"]],
			Name:      row[col["Name"]],
			Value:     row[col["Value"]],
			ValueDesc: row[col["ValueDesc"]],
			ValueType: specmodel.ValueType(row[col["ValueType"]]),
		})
	}
	return out, nil
}

func indexOf(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[h] = i
	}
	return m
}

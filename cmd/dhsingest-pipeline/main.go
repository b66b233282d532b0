// Command dhsingest-pipeline runs the full DHS ingestion pipeline for one
// survey: parse its dictionary, load the catalog, parse its data file, then
// synthesize and load every record's data table — the composition of
// dhsingest-dcf, dhsingest-catalog, dhsingest-dat, dhsingest-synth, and
// dhsingest-load into a single process
package main

import (
	"context"
	"flag"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/core/dat"
	"github.com/harry-gibson/DHS-To-Database/internal/core/dcf"
	"github.com/harry-gibson/DHS-To-Database/internal/core/encoding"
	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/config"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
	"github.com/harry-gibson/DHS-To-Database/internal/services/bulkload"
	"github.com/harry-gibson/DHS-To-Database/internal/services/catalog"
	"github.com/harry-gibson/DHS-To-Database/internal/services/synth"

	"github.com/google/uuid"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("DHSINGEST_PGSQL_")
	catCfg := root.Prefix("DHSINGEST_CATALOG_")
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
		fDCF    = flag.String("dcf", "", "path to the .dcf dictionary file")
		fDAT    = flag.String("dat", "", "path to the .dat data file")
		fDryRun = flag.Bool("dry-run", true, "log intent without writing to the warehouse")
		fExpand = flag.String("expand-ranges", root.MayExpansionPolicy("DCF_EXPAND_RANGES", config.ExpandAll),
			"range expansion policy: None | Multiple | All")
	)
	flag.Parse()

	if *fDCF == "" || *fDAT == "" {
		l.Fatal().Msg("missing -dcf or -dat")
	}

	stem := fileStem(*fDCF)
	survey, err := specmodel.ParseSurveyStem(stem)
	if err != nil {
		l.Fatal().Err(err).Str("stem", stem).Msg("could not parse survey filename")
	}
	log := l.With().Str("run_id", uuid.NewString()).
		Str("survey_id", survey.ID).Str("file_type", survey.FileType).Logger()

	// Stage 1: parse dictionary
	dcfF, dcfCharset, err := encoding.OpenDetected(*fDCF)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open dictionary file")
	}
	log.Debug().Str("charset", dcfCharset).Msg("detected dictionary file encoding")
	res, err := dcf.Parse(dcfF, survey, dcf.Options{
		ExpandRanges:        specmodel.ExpansionPolicy(*fExpand),
		RangeExpansionLimit: root.MayInt("DCF_EXPAND_LIMIT", 10000),
	})
	dcfF.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("parsing dictionary failed")
	}
	log.Info().Int("records", len(res.RecordSpecs)).Int("values", len(res.ValueSpecs)).
		Int("relations", len(res.Relations)).Msg("dictionary parsed")

	// Stage 2: load catalog
	ctx := context.Background()
	cat := catalog.New(st, catalog.Config{
		SpecSchema:     catCfg.MayString("SCHEMA", "public"),
		TableSpecTable: catCfg.MayString("TABLESPEC_TABLE", "tablespec"),
		ValueSpecTable: catCfg.MayString("VALUESPEC_TABLE", "valuespec"),
		DryRun:         *fDryRun,
	})
	if err := cat.DropAndReload(ctx, survey.ID, survey.FileType, res.RecordSpecs, res.ValueSpecs); err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	log.Info().Msg("catalog loaded")

	// Stage 3: parse data file
	idx, err := dat.BuildIndex(res.RecordSpecs)
	if err != nil {
		log.Fatal().Err(err).Msg("building record index failed")
	}
	datF, datCharset, err := encoding.OpenDetected(*fDAT)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open data file")
	}
	log.Debug().Str("charset", datCharset).Msg("detected data file encoding")
	tables, err := dat.Parse(datF, idx)
	datF.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("parsing data file failed")
	}
	log.Info().Int("tables", len(tables)).Msg("data file parsed")

	// Stage 4/5: synthesize and load every parsed record table
	dataSchema := synCfg.MayString("DATA_SCHEMA", "public")
	sy := synth.New(st, synth.Config{
		DataSchema: dataSchema,
		SpecSchema: catCfg.MayString("SCHEMA", "public"),
		TableSpec:  catCfg.MayString("TABLESPEC_TABLE", "tablespec"),
		DryRun:     *fDryRun,
	})
	ld := bulkload.New(st, sy, bulkload.Config{DataSchema: dataSchema, DryRun: *fDryRun})

	// Table names match the catalog's recordname verbatim: Postgres identifiers
	// are quoted, so case is preserved rather than folded, consistent with how
	// the DCF-declared record names reach both tablespec and the data tables
	for _, table := range tables {
		recordName := table.RecordName
		if err := sy.PrepareTable(ctx, recordName); err != nil {
			log.Fatal().Err(err).Str("record", recordName).Msg("preparing data table failed")
		}
		if err := ld.DropAndReload(ctx, recordName, survey.ID, table.Header, table.Rows); err != nil {
			log.Fatal().Err(err).Str("record", recordName).Msg("loading data table failed")
		}
		log.Info().Str("record", recordName).Int("rows", len(table.Rows)).Msg("data table loaded")
	}

	if modified := sy.ListModifiedTables(); len(modified) > 0 && loadCfg.MayBool("LOG_MODIFIED", true) {
		log.Info().Strs("modified_tables", modified).Msg("pipeline run modified table schemas")
	}

	log.Info().Msg("pipeline complete")
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

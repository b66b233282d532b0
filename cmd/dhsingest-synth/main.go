// Command dhsingest-synth creates or reconciles a warehouse data table for
// one DHS record, from whatever the catalog currently knows about that
// record across every loaded survey
package main

import (
	"context"
	"flag"

	"github.com/harry-gibson/DHS-To-Database/internal/platform/config"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
	"github.com/harry-gibson/DHS-To-Database/internal/services/synth"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("DHSINGEST_PGSQL_")
	synCfg := root.Prefix("DHSINGEST_SYNTH_")

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
		fRecord = flag.String("record", "", "record name to synthesize/reconcile, e.g. REC01")
		fDryRun = flag.Bool("dry-run", synCfg.MayBool("DRY_RUN", true), "log intent without writing")
	)
	flag.Parse()

	if *fRecord == "" {
		l.Fatal().Msg("missing -record")
	}

	sy := synth.New(st, synth.Config{
		DataSchema: synCfg.MayString("DATA_SCHEMA", "public"),
		SpecSchema: synCfg.MayString("SPEC_SCHEMA", "public"),
		TableSpec:  synCfg.MayString("TABLESPEC_TABLE", "tablespec"),
		DryRun:     *fDryRun,
	})

	if err := sy.PrepareTable(context.Background(), *fRecord); err != nil {
		l.Fatal().Err(err).Str("record", *fRecord).Msg("preparing data table failed")
	}

	l.Info().Str("record", *fRecord).Msg("data table ready")
}

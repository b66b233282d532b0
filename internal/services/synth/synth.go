// Package synth derives and evolves the warehouse's per-record data tables
// from catalog metadata
package synth

import (
	"context"
	"strings"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/store"
	pstrings "github.com/harry-gibson/DHS-To-Database/internal/platform/strings"

	"github.com/jackc/pgx/v5"
)

// maxColumnThreshold forces JSON-packed storage once a record's column union
// crosses this width
const maxColumnThreshold = 500

// firstClassNames are columns kept as real columns even in JSON-mode tables,
// beyond the "idx"/"ix"-prefixed heuristic
var firstClassNames = map[string]bool{
	"surveyid": true, "caseid": true, "mcaseid": true, "hhid": true,
}

// Config names the warehouse objects and knobs a Synthesizer targets
type Config struct {
	DataSchema string
	SpecSchema string
	TableSpec  string
	DryRun     bool
}

// Synthesizer creates and evolves per-record data tables, caching which
// tables it has already seen and verified across a single process
type Synthesizer struct {
	st  *store.Store
	cfg Config

	knownTables    map[string]bool
	verifiedTables map[string]bool
	jsonTables     map[string]bool
	jsonTablesInit bool
	modifiedTables map[string]bool
}

// New builds a Synthesizer against the given store and warehouse object names
func New(st *store.Store, cfg Config) *Synthesizer {
	return &Synthesizer{
		st:             st,
		cfg:            cfg,
		knownTables:    map[string]bool{},
		verifiedTables: map[string]bool{},
		jsonTables:     map[string]bool{},
		modifiedTables: map[string]bool{},
	}
}

// ListModifiedTables returns every data table this Synthesizer altered
// during the current process, for status reporting
func (s *Synthesizer) ListModifiedTables() []string {
	out := make([]string, 0, len(s.modifiedTables))
	for t := range s.modifiedTables {
		out = append(out, t)
	}
	return out
}

func (s *Synthesizer) markModified(table string) { s.modifiedTables[table] = true }

// PrepareTable ensures tableName exists with columns wide enough for
// everything the catalog currently knows about it, creating it on first
// sight and otherwise reconciling it against metadata. Cached per table for
// the life of the process
func (s *Synthesizer) PrepareTable(ctx context.Context, tableName string) error {
	if s.verifiedTables[tableName] {
		return nil
	}
	exists, err := s.tableExists(ctx, tableName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.createDataTable(ctx, tableName); err != nil {
			return err
		}
	} else if err := s.checkColsAgainstMetadata(ctx, tableName); err != nil {
		return err
	}
	s.verifiedTables[tableName] = true
	return nil
}

func (s *Synthesizer) tableExists(ctx context.Context, tableName string) (bool, error) {
	if s.knownTables[tableName] {
		return true, nil
	}
	var n int
	err := s.st.PG.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`,
		s.cfg.DataSchema, tableName,
	).Scan(&n)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeDB, "checking existence of table %s", tableName)
	}
	if n > 0 {
		s.knownTables[tableName] = true
		return true, nil
	}
	return false, nil
}

func (s *Synthesizer) qualifiedData(table string) string {
	return pgx.Identifier{s.cfg.DataSchema, table}.Sanitize()
}

func (s *Synthesizer) qualifiedSpec(table string) string {
	return pgx.Identifier{s.cfg.SpecSchema, table}.Sanitize()
}

// columnShouldBeFirstClass reports whether col stays a real column (rather
// than being packed into the JSON blob) even in a JSON-mode table
func columnShouldBeFirstClass(col string) bool {
	c := strings.ToLower(col)
	if pstrings.Contains(c, "idx") || strings.HasPrefix(c, "ix") {
		return true
	}
	return firstClassNames[c]
}

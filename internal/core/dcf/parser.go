package dcf

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/core/normalize"
	"github.com/harry-gibson/DHS-To-Database/internal/core/similarity"
	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
	"github.com/harry-gibson/DHS-To-Database/internal/platform/logger"
)

// similarityThreshold is the Ratcliff-Obershelp ratio above which a ValueSet
// label is considered to match its owning Item's label
const similarityThreshold = 0.7

// labelNormalizer folds case, Unicode width, and whitespace differences out
// of labels before they're compared, so dictionaries exported with a
// fullwidth space or mixed-case label don't trip a spurious mismatch warning
var labelNormalizer = normalize.New()

// Options configures range expansion, the only parser-wide knob exposed to
// callers
type Options struct {
	ExpandRanges        specmodel.ExpansionPolicy
	RangeExpansionLimit int
}

// DefaultOptions mirrors the documented defaults: expand all ranges up to
// 10000 values
func DefaultOptions() Options {
	return Options{ExpandRanges: specmodel.ExpandAll, RangeExpansionLimit: 10000}
}

// Result is the parsed, normalized output of one DCF file
type Result struct {
	RecordSpecs []specmodel.RecordSpec
	ValueSpecs  []specmodel.ValueSpec
	Relations   []specmodel.RelationSpec
}

// parser holds the running imputation context: the most-recently-seen
// level/record/survey defaults, updated at chunk terminators and inherited
// by whatever chunk comes next
type parser struct {
	opts Options

	survey   specmodel.Survey
	fileCode string

	kind     chunkKind
	skipping bool
	raw      map[string]string
	parsing  string // "", "Records", "IdItems" — which [IdItems]/[Records] block is currently open

	levelName, levelLabel                string
	recordName, recordLabel, recordType  string
	surveyZeroFill                       bool
	surveyDecimalChar                    string
	currentIDs                           []idItem
	seenLevels                           map[string]string
	seenRecords                          map[string]string

	explicitValues []valueRow
	ranges         []rangeSpec

	relMachine relationMachine

	items     []*draftItem
	relations []specmodel.RelationSpec

	lineNo int
}

// Parse reads a decoded DCF text stream and reconstructs its RecordSpec,
// ValueSpec, and RelationSpec rows
func Parse(r io.Reader, survey specmodel.Survey, opts Options) (Result, error) {
	p := &parser{
		opts:        opts,
		survey:      survey,
		fileCode:    survey.FileCode(),
		raw:         map[string]string{},
		seenLevels:  map[string]string{},
		seenRecords: map[string]string{},
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.lineNo++
		if err := p.feedLine(sc.Text()); err != nil {
			return Result{}, perr.WithField(err, p.fileCode)
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeDB, "reading dcf %s", p.fileCode)
	}

	// a file not ending in a blank line still needs its last chunk flushed
	if err := p.feedLine(""); err != nil {
		return Result{}, perr.WithField(err, p.fileCode)
	}

	if err := p.finalizeJoinableItems(); err != nil {
		return Result{}, err
	}

	return p.result(), nil
}

func (p *parser) feedLine(line string) error {
	if kind, isBracket := detectChunkStart(line); isBracket {
		p.kind = kind
		p.skipping = kind == kindUnknown
		p.raw = map[string]string{}
		switch kind {
		case kindRecord:
			p.parsing = "Records"
		case kindIdItems:
			p.parsing = "IdItems"
			p.currentIDs = nil
		}
		return nil
	}

	if strings.TrimSpace(line) == "" {
		return p.terminateChunk()
	}

	key, value, ok := splitKeyValue(line)
	if !ok {
		return nil // a stray non-blank, non-bracket, non-kv line: ignore
	}

	if p.kind == kindRelation {
		rel, complete, err := p.relMachine.addRow(key, value)
		if err != nil {
			return err
		}
		if complete {
			rel.FileCode = p.fileCode
			p.relations = append(p.relations, rel)
		}
		return nil
	}

	if key == "Value" {
		ranges, explicit := parseValueLine(value)
		if explicit != nil {
			p.explicitValues = append(p.explicitValues, *explicit)
		}
		p.ranges = append(p.ranges, ranges...)
		return nil
	}

	if _, exists := p.raw[key]; !exists {
		p.raw[key] = value
	}
	return nil
}

func (p *parser) terminateChunk() error {
	defer func() {
		p.kind = kindNone
		p.skipping = false
		p.raw = map[string]string{}
	}()

	if p.skipping {
		return nil
	}

	switch p.kind {
	case kindDictionary:
		return p.terminateDictionary()
	case kindLevel:
		return p.terminateLevel()
	case kindRecord:
		return p.terminateRecord()
	case kindItem:
		return p.terminateItem()
	case kindValueSet:
		return p.terminateValueSet()
	case kindRelation:
		rel, ok := p.relMachine.emit()
		if ok {
			rel.FileCode = p.fileCode
			p.relations = append(p.relations, rel)
		}
		return nil
	}
	return nil
}

func (p *parser) terminateDictionary() error {
	start := getInt(p.raw, "RecordTypeStart")
	length := getInt(p.raw, "RecordTypeLen")
	p.surveyZeroFill = getBool(p.raw, "ZeroFill")
	p.surveyDecimalChar = p.raw["DecimalChar"]

	item := &draftItem{
		itemType:        specmodel.RecordDescription,
		recordName:      specmodel.RootRecordName,
		recordLabel:     specmodel.RootRecordName,
		recordTypeValue: specmodel.RootRecordName,
		start:           start,
		length:          length,
		zeroFill:        p.surveyZeroFill,
		decimalChar:     p.surveyDecimalChar,
	}
	p.items = append(p.items, item)
	return nil
}

func (p *parser) terminateLevel() error {
	name := p.raw["Name"]
	label := p.raw["Label"]
	if existing, seen := p.seenLevels[name]; seen {
		if existing == label {
			logger.Get().Warn().Int("line", p.lineNo).Str("level", name).Msg("duplicate level name/label")
		} else {
			return perr.Newf(perr.ErrorCodeValidation, "duplicate level %q at line %d with mismatched label", name, p.lineNo)
		}
	}
	p.seenLevels[name] = label
	p.levelName, p.levelLabel = name, label
	return nil
}

func (p *parser) terminateRecord() error {
	name := p.raw["Name"]
	label := p.raw["Label"]
	typeValue := strings.Trim(p.raw["RecordTypeValue"], "'")

	if existing, seen := p.seenRecords[name]; seen {
		if existing == label {
			logger.Get().Warn().Int("line", p.lineNo).Str("record", name).Msg("duplicate record name/label")
		} else {
			return perr.Newf(perr.ErrorCodeValidation, "duplicate record %q at line %d with mismatched label", name, p.lineNo)
		}
	}
	p.seenRecords[name] = label

	p.recordName, p.recordLabel, p.recordType = name, label, typeValue

	for _, id := range p.currentIDs {
		p.items = append(p.items, &draftItem{
			itemType:        specmodel.IdItem,
			recordName:      name,
			recordLabel:     label,
			recordTypeValue: typeValue,
			levelName:       p.levelName,
			levelLabel:      p.levelLabel,
			name:            id.name,
			label:           id.label,
			start:           id.start,
			length:          id.length,
		})
	}
	return nil
}

func (p *parser) terminateItem() error {
	switch p.parsing {
	case "IdItems":
		p.currentIDs = append(p.currentIDs, idItem{
			name:   p.raw["Name"],
			label:  p.raw["Label"],
			start:  getInt(p.raw, "Start"),
			length: getInt(p.raw, "Len"),
		})
		return nil
	default: // "Records"
		zeroFill := p.surveyZeroFill
		if v, ok := p.raw["ZeroFill"]; ok {
			zeroFill = parseBool(v)
		}
		decimalChar := p.surveyDecimalChar
		if v, ok := p.raw["DecimalChar"]; ok {
			decimalChar = v
		}
		p.items = append(p.items, &draftItem{
			itemType:        specmodel.Item,
			recordName:      p.recordName,
			recordLabel:     p.recordLabel,
			recordTypeValue: p.recordType,
			levelName:       p.levelName,
			levelLabel:      p.levelLabel,
			name:            p.raw["Name"],
			label:           p.raw["Label"],
			start:           getInt(p.raw, "Start"),
			length:          getInt(p.raw, "Len"),
			occurrences:     getInt(p.raw, "Occurrences"),
			zeroFill:        zeroFill,
			decimalChar:     decimalChar,
			decimal:         getInt(p.raw, "Decimal"),
		})
		return nil
	}
}

func (p *parser) terminateValueSet() error {
	defer func() {
		p.explicitValues = nil
		p.ranges = nil
	}()

	if len(p.items) == 0 {
		return perr.Newf(perr.ErrorCodeValidation, "valueset at line %d with no preceding item to attach to", p.lineNo)
	}
	lastItem := p.items[len(p.items)-1]

	label := p.raw["Label"]
	normLabel := labelNormalizer.Normalize(label)
	normItemLabel := labelNormalizer.Normalize(lastItem.label)
	ratio := similarity.Ratio(normLabel, normItemLabel)
	if !(ratio > similarityThreshold || strings.Index(normLabel, normItemLabel) == 0) {
		logger.Get().Warn().Int("line", p.lineNo).Str("item", lastItem.name).
			Str("valueset_label", label).Str("item_label", lastItem.label).
			Msg("valueset label does not appear to match preceding item")
	}

	expanded, err := expandRanges(p.ranges, p.opts.ExpandRanges, p.opts.RangeExpansionLimit)
	if err != nil {
		return perr.WithField(err, lastItem.name)
	}

	combined := append(append([]valueRow{}, p.explicitValues...), expanded...)
	lastItem.values = append(lastItem.values, combined...)
	return nil
}

// finalizeJoinableItems re-tags every Item referenced by a Relation's
// primary/secondary link column as JoinableItem. Must run after every
// relation has been parsed, since relations are only fully known at
// end-of-file
func (p *parser) finalizeJoinableItems() error {
	joinCols := map[string]map[string]bool{}
	for _, rel := range p.relations {
		if rel.PrimaryLink != specmodel.RowIDSentinel {
			addJoinCol(joinCols, rel.PrimaryTable, rel.PrimaryLink)
		}
		if rel.SecondaryLink != specmodel.RowIDSentinel {
			addJoinCol(joinCols, rel.SecondaryTable, rel.SecondaryLink)
		}
	}
	for _, item := range p.items {
		if item.itemType != specmodel.Item {
			continue
		}
		if cols, ok := joinCols[item.recordName]; ok && cols[item.name] {
			item.itemType = specmodel.JoinableItem
		}
	}
	return nil
}

func addJoinCol(joinCols map[string]map[string]bool, table, col string) {
	if joinCols[table] == nil {
		joinCols[table] = map[string]bool{}
	}
	joinCols[table][col] = true
}

func (p *parser) result() Result {
	res := Result{
		RecordSpecs: make([]specmodel.RecordSpec, 0, len(p.items)),
		Relations:   p.relations,
	}
	for _, item := range p.items {
		res.RecordSpecs = append(res.RecordSpecs, item.toRecordSpec(p.fileCode))
		for _, v := range item.values {
			res.ValueSpecs = append(res.ValueSpecs, v.toValueSpec(p.fileCode, item.name))
		}
	}
	return res
}

func getInt(raw map[string]string, key string) int {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func getBool(raw map[string]string, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	return parseBool(v)
}

// parseBool accepts the handful of truthy spellings DCF files use for
// ZeroFill ("1", "Y", "Yes", "True") in addition to Go's own ParseBool forms
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "y", "yes", "true":
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Package dcf parses CSPro .DCF dictionary files (a line-oriented,
// section-delimited description of a survey's record/item/valueset/relation
// hierarchy) into three normalized tables: RecordSpec, ValueSpec, and
// RelationSpec rows
package dcf

import (
	"strconv"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
)

// draftItem is the mutable, optional-keyed record built up while parsing one
// [Item]/[Record]/[Dictionary] chunk, before it is flattened into a
// specmodel.RecordSpec row, with the optional keys as explicit fields
// instead of a dynamic map
type draftItem struct {
	itemType        specmodel.ItemType
	recordName      string
	recordLabel     string
	recordTypeValue string
	levelName       string
	levelLabel      string
	name            string
	label           string
	start           int
	length          int
	occurrences     int
	zeroFill        bool
	decimalChar     string
	decimal         int
	values          []valueRow
}

func (d *draftItem) toRecordSpec(fileCode string) specmodel.RecordSpec {
	return specmodel.RecordSpec{
		ItemType:        d.itemType,
		FileCode:        fileCode,
		RecordName:      d.recordName,
		RecordTypeValue: d.recordTypeValue,
		RecordLabel:     d.recordLabel,
		Name:            d.name,
		Label:           d.label,
		Start:           d.start,
		Len:             d.length,
		Occurrences:     d.occurrences,
		ZeroFill:        d.zeroFill,
		DecimalChar:     d.decimalChar,
		Decimal:         d.decimal,
		FMETYPE:         fmeChar(d.length),
	}
}

func fmeChar(length int) string {
	return "fme_char(" + strconv.Itoa(length) + ")"
}

// valueRow is one materialized (value, description, type) triple, attached
// to the most recently emitted item at a [ValueSet] chunk terminator
type valueRow struct {
	value string
	desc  string
	typ   specmodel.ValueType
}

func (v valueRow) toValueSpec(fileCode, itemName string) specmodel.ValueSpec {
	return specmodel.ValueSpec{
		FileCode:  fileCode,
		Name:      itemName,
		Value:     v.value,
		ValueDesc: v.desc,
		ValueType: v.typ,
	}
}

// idItem is one id-item accumulated in an [IdItems] block, applied to every
// [Record] chunk that follows until the next [IdItems] block resets it
type idItem struct {
	name, label   string
	start, length int
}


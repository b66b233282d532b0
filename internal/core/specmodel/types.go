// Package specmodel defines the entities shared by the DCF parser, DAT
// parser, metadata catalog loader, and data table synthesizer: the parsed
// shape of one survey's dictionary and the records/items/values/relations it
// declares
package specmodel

// ItemType classifies a RecordSpec row
type ItemType string

const (
	// RecordDescription is the synthetic row emitted once per survey from the
	// Dictionary chunk, carrying the record-type slice position
	RecordDescription ItemType = "RecordDescription"

	// IdItem is an item that participates in a record's logical key
	IdItem ItemType = "IdItem"

	// Item is an ordinary field
	Item ItemType = "Item"

	// JoinableItem is an Item re-tagged because a Relation references it
	JoinableItem ItemType = "JoinableItem"
)

// ValueType classifies a ValueSpec row
type ValueType string

const (
	// ExplicitValue is a single literal value with a description
	ExplicitValue ValueType = "ExplicitValue"

	// RangeMin is the lower bound of an unexpanded single range
	RangeMin ValueType = "RangeMin"

	// RangeMax is the upper bound of an unexpanded single range
	RangeMax ValueType = "RangeMax"

	// MultiRangeMin is the lower bound of one range among several unexpanded ranges
	MultiRangeMin ValueType = "MultiRangeMin"

	// MultiRangeMax is the upper bound of one range among several unexpanded ranges
	MultiRangeMax ValueType = "MultiRangeMax"

	// ExpandedRange is one integer materialized from a range under the All/Multiple policy
	ExpandedRange ValueType = "ExpandedRange"
)

// ExpansionPolicy controls how Value ranges are materialized at ValueSet
// terminator time
type ExpansionPolicy string

const (
	// ExpandNone never expands a range into individual rows
	ExpandNone ExpansionPolicy = "None"

	// ExpandMultiple expands only when a valueset declares more than one range
	ExpandMultiple ExpansionPolicy = "Multiple"

	// ExpandAll expands any range whose size is within the configured limit
	ExpandAll ExpansionPolicy = "All"
)

// Survey identifies one DHS survey file by its parsed filename stem
type Survey struct {
	ID       string `validate:"required,numeric"`
	Country  string `validate:"required,len=2,alpha"`
	FileType string `validate:"required,len=2,alpha"`
	Version  string `validate:"required,len=2,numeric"`
}

// FileCode is the filename code with the numeric survey prefix stripped,
// e.g. "cmir71" for survey 511.CMIR71 — the key catalog tables index by
func (s Survey) FileCode() string {
	return s.Country + s.FileType + s.Version
}

// Level is a hierarchical grouping of records, carried for context only
type Level struct {
	Name  string `validate:"required"`
	Label string
}

// Record declares one logical table and the literal that selects it in a DAT line
type Record struct {
	Name            string `validate:"required"`
	Label           string
	RecordTypeValue string `validate:"required"`
}

// RecordSpec is one row of the FlatRecordSpec intermediate: either the
// synthetic RecordDescription row, an IdItem, an Item, or a JoinableItem
type RecordSpec struct {
	ItemType        ItemType `validate:"required"`
	FileCode        string
	RecordName      string `validate:"required"`
	RecordTypeValue string
	RecordLabel     string
	Name            string `validate:"required"`
	Label           string
	Start           int `validate:"gte=1"`
	Len             int `validate:"gte=1"`
	Occurrences     int
	ZeroFill        bool
	DecimalChar     string
	Decimal         int
	// FMETYPE holds a fme_char(Len) style type annotation, empty unless set
	FMETYPE string
}

// ValueSpec is one row of the FlatValuesSpec intermediate
type ValueSpec struct {
	FileCode  string
	Name      string `validate:"required"`
	Value     string `validate:"required"`
	ValueDesc string
	ValueType ValueType `validate:"required"`
}

// RelationSpec is one row of the RelationshipsSpec intermediate
type RelationSpec struct {
	FileCode       string
	RelName        string `validate:"required"`
	PrimaryTable   string `validate:"required"`
	PrimaryLink    string `validate:"required"`
	SecondaryTable string `validate:"required"`
	SecondaryLink  string `validate:"required"`
}

// RowIDSentinel denotes a positional occurrence-index join rather than a
// column join, in PrimaryLink/SecondaryLink
const RowIDSentinel = "*ROWID*"

// RootRecordName is the synthetic record name used for the Dictionary-level
// RecordDescription row
const RootRecordName = "*"

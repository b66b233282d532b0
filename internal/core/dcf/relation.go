package dcf

import "github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"

// relationMachine maintains the state needed to process [Relation] rows
// sequentially. Unlike every other chunk, a [Relation] block may encode
// several output RelationSpec rows in one blank-line-delimited section: it
// starts with Primary, then has one or more repetitions of
// (0/1 PrimaryLink, 1 Secondary, 0/1 SecondaryLink)
type relationMachine struct {
	name           string
	primaryTable   string
	primaryLink    string
	secondaryTable string
	secondaryLink  string
}

// addRow feeds one Key=Value line from a [Relation] chunk. It returns a
// completed RelationSpec and true whenever adding this row implies the prior
// state was a finished join (PrimaryLink always finishes one; a repeated
// Secondary without an intervening PrimaryLink finishes one too)
func (m *relationMachine) addRow(field, value string) (specmodel.RelationSpec, bool, error) {
	switch field {
	case "Name":
		if m.name != "" {
			return specmodel.RelationSpec{}, false, errNameAlreadySet
		}
		m.name = value
		return specmodel.RelationSpec{}, false, nil

	case "Primary":
		if m.primaryTable != "" {
			return specmodel.RelationSpec{}, false, errPrimaryAlreadySet
		}
		m.primaryTable = value
		return specmodel.RelationSpec{}, false, nil

	case "PrimaryLink":
		out, ok := m.snapshot()
		m.primaryLink = value
		m.secondaryTable = ""
		m.secondaryLink = ""
		return out, ok, nil

	case "Secondary":
		out, ok := m.snapshot()
		if m.secondaryTable != "" {
			// the prior join was snapshotted above with its primary link; a
			// second Secondary without an intervening PrimaryLink starts the
			// next join with no primary-side link
			m.primaryLink = ""
		}
		m.secondaryTable = value
		m.secondaryLink = ""
		return out, ok, nil

	case "SecondaryLink":
		m.secondaryLink = value
		return specmodel.RelationSpec{}, false, nil

	default:
		return specmodel.RelationSpec{}, false, errUnknownRelationTag
	}
}

// emit returns the join currently specified, if complete, and resets the
// machine. Called at the [Relation] chunk terminator to flush the final join
// in the block
func (m *relationMachine) emit() (specmodel.RelationSpec, bool) {
	out, ok := m.snapshot()
	*m = relationMachine{}
	return out, ok
}

// snapshot returns the join described by the current state without
// resetting it, or false if name/primary/secondary aren't all set yet
func (m *relationMachine) snapshot() (specmodel.RelationSpec, bool) {
	if m.name == "" || m.primaryTable == "" || m.secondaryTable == "" {
		return specmodel.RelationSpec{}, false
	}
	primaryLink := m.primaryLink
	if primaryLink == "" {
		primaryLink = specmodel.RowIDSentinel
	}
	secondaryLink := m.secondaryLink
	if secondaryLink == "" {
		secondaryLink = specmodel.RowIDSentinel
	}
	return specmodel.RelationSpec{
		RelName:        m.name,
		PrimaryTable:   m.primaryTable,
		PrimaryLink:    primaryLink,
		SecondaryTable: m.secondaryTable,
		SecondaryLink:  secondaryLink,
	}, true
}

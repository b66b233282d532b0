package specmodel

// VersionLookup is the result of looking up the warehouse version(s) already
// loaded for a (survey_id, file_type). This sum type keeps "nothing loaded
// yet" distinct from an actual version string: IsZero() reports true only
// when the catalog genuinely holds nothing for this survey/file_type pair
type VersionLookup struct {
	hasVersion bool
	value      string
	isUnique   bool
}

// NoVersion is the zero VersionLookup: no matching rows were found
func NoVersion() VersionLookup {
	return VersionLookup{}
}

// VersionOf constructs a VersionLookup for a lookup that found at least one
// row. isUnique reports whether every matching row shared the same filecode
// (false means multiple distinct filecodes were present and a caller should
// warn before deciding what to do)
func VersionOf(value string, isUnique bool) VersionLookup {
	return VersionLookup{hasVersion: true, value: value, isUnique: isUnique}
}

// IsZero reports whether the lookup found no rows at all
func (v VersionLookup) IsZero() bool { return !v.hasVersion }

// Value returns the maximum version string found, or "00" when IsZero, with
// IsZero remaining the authoritative "did we find anything" check
func (v VersionLookup) Value() string {
	if !v.hasVersion {
		return "00"
	}
	return v.value
}

// IsUnique reports whether all matching rows agreed on one filecode.
// Meaningless (returns true) when IsZero
func (v VersionLookup) IsUnique() bool {
	if !v.hasVersion {
		return true
	}
	return v.isUnique
}

package config

// ExpansionPolicy values accepted by MayExpansionPolicy. Kept as plain
// strings here (rather than importing specmodel) to avoid a dependency from
// the generic config package into domain model types; callers convert.
const (
	ExpandNone     = "None"
	ExpandMultiple = "Multiple"
	ExpandAll      = "All"
)

// MayExpansionPolicy reads the range-expansion policy knob and validates it
// against the three accepted values via MayEnum
func (c Conf) MayExpansionPolicy(key, def string) string {
	return c.MayEnum(key, def, ExpandNone, ExpandMultiple, ExpandAll)
}

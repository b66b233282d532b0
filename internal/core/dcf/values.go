package dcf

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/harry-gibson/DHS-To-Database/internal/core/specmodel"
	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// rangeSpec is one min:max pair parsed from a Value= line, not yet
// materialized into RangeMin/RangeMax/ExpandedRange rows — that happens at
// the owning [ValueSet] chunk's terminator, once every Value= line in the
// chunk has been scanned and the total range count is known: the decision
// to expand depends on how many ranges the whole valueset declared, not
// just this line
type rangeSpec struct {
	min, max, desc string
}

// rangePattern matches every "min:max" occurrence on the value side of a
// Value= line (left of the first ';'), allowing negative and decimal
// endpoints and multiple ranges on one line (e.g. "100:101 102:198;Days")
var rangePattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?):(-?\d+(?:\.\d+)?)`)

// parseValueLine splits a Value=<...> field into its description (text
// after the first ';', protecting time-of-day values like "1;Yes: 2:00pm"
// from being misread as a range) and then, from the part before it, either
// one or more ranges or a single explicit value
func parseValueLine(fieldVal string) (ranges []rangeSpec, explicit *valueRow) {
	valuePart := fieldVal
	desc := ""
	if i := strings.IndexByte(fieldVal, ';'); i >= 0 {
		valuePart = fieldVal[:i]
		desc = strings.TrimSpace(fieldVal[i+1:])
	}

	matches := rangePattern.FindAllStringSubmatch(valuePart, -1)
	if len(matches) > 0 {
		ranges = make([]rangeSpec, 0, len(matches))
		for _, m := range matches {
			ranges = append(ranges, rangeSpec{min: m[1], max: m[2], desc: desc})
		}
		return ranges, nil
	}

	return nil, &valueRow{value: strings.TrimSpace(valuePart), desc: desc, typ: specmodel.ExplicitValue}
}

// expandRanges materializes the accumulated ranges of one [ValueSet] chunk
// into ValueSpec-ready rows according to the configured expansion policy.
// gotMultiple is true when the chunk declared more than one range (across
// all of its Value= lines, not just one)
func expandRanges(ranges []rangeSpec, policy specmodel.ExpansionPolicy, limit int) ([]valueRow, error) {
	gotMultiple := len(ranges) > 1
	var out []valueRow

	for _, r := range ranges {
		minVal, err := strconv.ParseFloat(r.min, 64)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "range min %q is not numeric", r.min)
		}
		maxVal, err := strconv.ParseFloat(r.max, 64)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "range max %q is not numeric", r.max)
		}
		size := (maxVal - minVal) + 1
		if size <= 1 {
			return nil, perr.Newf(perr.ErrorCodeValidation, "range %s:%s has size %v, must be > 1", r.min, r.max, size)
		}
		isInteger := minVal == math.Trunc(minVal) && maxVal == math.Trunc(maxVal)

		minType, maxType := specmodel.RangeMin, specmodel.RangeMax
		if gotMultiple {
			minType, maxType = specmodel.MultiRangeMin, specmodel.MultiRangeMax
		}

		canExpand := size <= float64(limit) && isInteger &&
			(policy == specmodel.ExpandAll || (gotMultiple && policy == specmodel.ExpandMultiple))

		if canExpand {
			for v := int(minVal); v <= int(maxVal); v++ {
				out = append(out, valueRow{value: strconv.Itoa(v), desc: r.desc, typ: specmodel.ExpandedRange})
			}
			continue
		}

		out = append(out,
			valueRow{value: formatRangeEndpoint(r.min, minVal), desc: r.desc, typ: minType},
			valueRow{value: formatRangeEndpoint(r.max, maxVal), desc: r.desc, typ: maxType},
		)
	}
	return out, nil
}

// formatRangeEndpoint preserves the original literal for integer-looking
// endpoints (so "00" style zero-padding round-trips) and otherwise formats
// the parsed float
func formatRangeEndpoint(literal string, parsed float64) string {
	if parsed == math.Trunc(parsed) && !strings.Contains(literal, ".") {
		return literal
	}
	return strconv.FormatFloat(parsed, 'f', -1, 64)
}

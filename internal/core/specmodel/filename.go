package specmodel

import (
	"strings"
	"unicode"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

// TableFilename is a fully parsed filename of the form
// <survey_id>.<CC><TT><VV>[.<record_name>].<ext>
type TableFilename struct {
	Survey     Survey
	RecordName string // empty for the dictionary/spec files that have no record component
	Ext        string
}

// ParseSurveyStem parses the two-component filename stem "<id>.<CC><TT><vv>"
// shared by DCF/spec files, e.g. "511.CMIR71" -> {ID:"511", Country:"cm",
// FileType:"ir", Version:"71"}. Malformed stems fail loudly rather than being
// silently skipped
func ParseSurveyStem(stem string) (Survey, error) {
	parts := strings.Split(stem, ".")
	if len(parts) != 2 {
		return Survey{}, perr.InvalidArgf("survey stem %q: want exactly one '.' separating id from code, got %d component(s)", stem, len(parts))
	}
	return parseSurveyIDAndCode(parts[0], parts[1], stem)
}

// ParseTableFilename parses the full data/spec filename grammar
// "<survey_id>.<CC><TT><VV>[.<record_name>].<ext>". Three components means
// no record name (a spec/dictionary file); four means a data table file
func ParseTableFilename(name string) (TableFilename, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 && len(parts) != 4 {
		return TableFilename{}, perr.InvalidArgf("filename %q: want 3 or 4 '.'-separated components, got %d", name, len(parts))
	}

	survey, err := parseSurveyIDAndCode(parts[0], parts[1], name)
	if err != nil {
		return TableFilename{}, err
	}

	tf := TableFilename{Survey: survey, Ext: parts[len(parts)-1]}
	if len(parts) == 4 {
		recordName := parts[2]
		if recordName == "" {
			return TableFilename{}, perr.InvalidArgf("filename %q: empty record name component", name)
		}
		tf.RecordName = recordName
	}
	return tf, nil
}

func parseSurveyIDAndCode(idPart, codePart, original string) (Survey, error) {
	if idPart == "" || !isAllDigits(idPart) {
		return Survey{}, perr.InvalidArgf("filename %q: survey id %q must be numeric", original, idPart)
	}
	if len(codePart) != 6 {
		return Survey{}, perr.InvalidArgf("filename %q: code %q must be exactly 6 characters (CCTTVV)", original, codePart)
	}

	country := codePart[0:2]
	fileType := codePart[2:4]
	version := codePart[4:6]

	if !isAllAlpha(country) {
		return Survey{}, perr.InvalidArgf("filename %q: country code %q must be alphabetic", original, country)
	}
	if !isAllAlpha(fileType) {
		return Survey{}, perr.InvalidArgf("filename %q: file type code %q must be alphabetic", original, fileType)
	}
	if !isAllDigits(version) {
		return Survey{}, perr.InvalidArgf("filename %q: version %q must be numeric", original, version)
	}

	return Survey{
		ID:       idPart,
		Country:  strings.ToLower(country),
		FileType: strings.ToLower(fileType),
		Version:  version,
	}, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAllAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

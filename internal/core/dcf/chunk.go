package dcf

import "strings"

// chunkKind tags the kind of section currently being accumulated
type chunkKind int

const (
	kindNone chunkKind = iota
	kindDictionary
	kindLevel
	kindIdItems
	kindRecord
	kindItem
	kindValueSet
	kindRelation
	kindUnknown
)

// recognizedTags lists the bracketed section headers the parser understands;
// anything else bracketed is an unknown chunk, skipped until the next blank
// line
var recognizedTags = []struct {
	tag  string
	kind chunkKind
}{
	{"[Dictionary]", kindDictionary},
	{"[Level]", kindLevel},
	{"[IdItems]", kindIdItems},
	{"[Record]", kindRecord},
	{"[Item]", kindItem},
	{"[ValueSet]", kindValueSet},
	{"[Relation]", kindRelation},
}

// detectChunkStart reports whether line opens a new chunk and, if so, which
// kind. A bracketed tag not in recognizedTags reports kindUnknown
func detectChunkStart(line string) (chunkKind, bool) {
	for _, rt := range recognizedTags {
		if strings.Contains(line, rt.tag) {
			return rt.kind, true
		}
	}
	if strings.HasPrefix(line, "[") && strings.Contains(line, "]") {
		return kindUnknown, true
	}
	return kindNone, false
}

// splitKeyValue splits a "Key=Value" line on the first '=' only, since
// descriptions may themselves contain '='
func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

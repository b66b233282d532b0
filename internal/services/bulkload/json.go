package bulkload

import "strings"

// packJSON renders the non-id columns of one row as a JSON object, in
// original header order, with every value kept as a literal string — no
// cell is ever reinterpreted as a number or boolean, so "007" round-trips
// as the string "007", not the number 7
func packJSON(lowerHeader []string, idCols map[int]bool, row []string) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i, col := range lowerHeader {
		if idCols[i] {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		writeJSONString(&b, col)
		b.WriteByte(':')
		if i < len(row) {
			writeJSONString(&b, row[i])
		} else {
			writeJSONString(&b, "")
		}
	}
	b.WriteByte('}')
	return b.String()
}

// writeJSONString escapes s as a JSON string literal. Values never pass
// through a numeric/boolean encoder, so "007" and "true" are written back
// out exactly as quoted strings
func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				const hex = "0123456789abcdef"
				b.WriteByte(hex[(r>>4)&0xF])
				b.WriteByte(hex[r&0xF])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

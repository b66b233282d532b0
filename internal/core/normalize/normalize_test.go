package normalize

import "testing"

func TestNormalize_Empty(t *testing.T) {
	n := New()
	if got := n.Normalize(""); got != "" {
		t.Fatalf("Normalize(\"\") = %q, want empty", got)
	}
}

func TestNormalize_CaseFold(t *testing.T) {
	n := New()
	got := n.Normalize("Urban  Area")
	want := "urban area"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_FormatCharsStripped(t *testing.T) {
	n := New()
	// zero-width joiner (U+200D) between letters should be dropped entirely
	got := n.Normalize("Ur‍ban")
	want := "urban"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_FullwidthFolds(t *testing.T) {
	n := New()
	// fullwidth "Urban" letters fold to ASCII
	got := n.Normalize("Ｕｒｂａｎ")
	want := "urban"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_WhitespaceCollapsed(t *testing.T) {
	n := New()
	got := n.Normalize("  Type   of\tplace  \n\n")
	want := "type of place"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_ControlBytesDropped(t *testing.T) {
	n := New()
	got := n.Normalize("Place\x00Name\x7F")
	want := "placename"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_InvalidUTF8Dropped(t *testing.T) {
	n := New()
	got := n.Normalize("Urb\xffan")
	want := "urban"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_LabelVariantsConverge(t *testing.T) {
	n := New()
	a := n.Normalize("Type of Place")
	b := n.Normalize("  TYPE   OF place ")
	if a != b {
		t.Fatalf("label variants did not converge: %q vs %q", a, b)
	}
}

func TestCollapseSpaces_PreservesNewlines(t *testing.T) {
	got := collapseSpaces("line one\n\n  line two")
	want := "line one\nline two"
	if got != want {
		t.Fatalf("collapseSpaces = %q, want %q", got, want)
	}
}

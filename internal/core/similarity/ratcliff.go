// Package similarity implements the Ratcliff-Obershelp string similarity
// ratio used by the DCF parser to sanity-check that a [ValueSet] chunk is
// being attached to the right preceding Item (see internal/core/dcf's
// valueset-terminator handling)
package similarity

// Ratio computes the Ratcliff-Obershelp similarity ratio of a and b, in
// [0, 1]: twice the total length of matching (non-overlapping, longest-first)
// substrings divided by the combined length of both strings. Mirrors
// Python's difflib.SequenceMatcher(None, a, b).ratio(), which is what the
// reference DCF parser calls to compare a ValueSet's label against the
// preceding Item's label
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	matches := matchLength(ra, rb)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matches) / float64(total)
}

// matchLength recursively finds the longest matching block between a and b,
// then recurses on the unmatched left and right remainders, summing matched
// rune counts — the core of the Ratcliff-Obershelp algorithm
func matchLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aStart, bStart, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	left := matchLength(a[:aStart], b[:bStart])
	right := matchLength(a[aStart+size:], b[bStart+size:])
	return left + size + right
}

// longestMatch finds the longest common contiguous run between a and b,
// returning its start index in each and its length. Ties broken by earliest
// start in a then earliest start in b, matching difflib's behavior
func longestMatch(a, b []rune) (aStart, bStart, size int) {
	// index positions of each rune in b for O(len(a)*len(b)) DP without a
	// full suffix-automaton; fine for DCF/item label lengths (tens of runes)
	bIndex := make(map[rune][]int, len(b))
	for i, r := range b {
		bIndex[r] = append(bIndex[r], i)
	}

	// j2len[j] = length of the match ending at b[j-1] for the previous a[i-1]
	j2len := make(map[int]int)
	for i, ra := range a {
		newJ2len := make(map[int]int)
		for _, j := range bIndex[ra] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > size {
				aStart = i - k + 1
				bStart = j - k + 1
				size = k
			}
		}
		j2len = newJ2len
	}
	return aStart, bStart, size
}

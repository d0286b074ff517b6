package reconcile

import (
	"sort"
	"strings"
)

// cleanDescription trims and drops ideographic spaces before comparison.
func cleanDescription(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "　", "")
}

// worthComparing reports whether two cleaned descriptions carry enough text to
// be compared at all.
func worthComparing(a, b string) bool {
	if a == "" || b == "" || strings.EqualFold(a, "nan") || strings.EqualFold(b, "nan") {
		return false
	}
	for _, doc := range [...]string{a, b} {
		for _, w := range strings.Fields(doc) {
			if len([]rune(w)) >= 2 {
				return true
			}
		}
	}
	return false
}

// TokenSetRatio scores two descriptions in [0, 1] by comparing their
// whitespace token sets: shared tokens count as equal, the remainders are
// compared with a normalised insert/delete distance. A description whose
// tokens are a subset of the other's scores 1.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var sect, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			sect = append(sect, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 1
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	diffAB := strings.Join(onlyA, " ")
	diffBA := strings.Join(onlyB, " ")
	abLen := runeLen(diffAB)
	baLen := runeLen(diffBA)
	sectLen := runeLen(strings.Join(sect, " "))
	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	best := normalized(indel(diffAB, diffBA), sectABLen+sectBALen)
	if sectLen == 0 {
		return best
	}
	if r := normalized(sep+abLen, sectLen+sectABLen); r > best {
		best = r
	}
	if r := normalized(sep+baLen, sectLen+sectBALen); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func normalized(dist, lenSum int) float64 {
	if lenSum == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(lenSum)
}

func runeLen(s string) int {
	return len([]rune(s))
}

// indel is the edit distance allowing only insertions and deletions,
// len(a)+len(b)-2*LCS(a,b), over runes.
func indel(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return len(ra) + len(rb)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return len(ra) + len(rb) - 2*prev[len(rb)]
}

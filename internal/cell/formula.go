package cell

import (
	"sort"
	"strconv"
	"strings"
)

// formula writes counts in Hill order: C, then H, then the rest
// alphabetically. Without carbon everything is alphabetical.
func formula(atoms []Atom) string {
	counts := make(map[string]int)
	for _, a := range atoms {
		counts[a.Element().Symbol]++
	}
	syms := make([]string, 0, len(counts))
	for s := range counts {
		syms = append(syms, s)
	}
	_, hasC := counts["C"]
	sort.Slice(syms, func(i, j int) bool {
		if hasC {
			ri, rj := hillRank(syms[i]), hillRank(syms[j])
			if ri != rj {
				return ri < rj
			}
		}
		return syms[i] < syms[j]
	})

	var b strings.Builder
	for _, s := range syms {
		b.WriteString(s)
		if n := counts[s]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

func hillRank(sym string) int {
	switch sym {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

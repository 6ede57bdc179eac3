package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSupercell parses repeat counts written as "3,3,1" or "3x3x1".
func ParseSupercell(s string) ([3]int, error) {
	var out [3]int
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == ',' || r == 'x' })
	if len(parts) != 3 {
		return out, fmt.Errorf("supercell %q: want three counts like 3,3,1", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("supercell %q: %w", s, err)
		}
		if n < 1 {
			return out, fmt.Errorf("supercell %q: counts must be positive", s)
		}
		out[i] = n
	}
	return out, nil
}

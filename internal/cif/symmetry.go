package cif

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/crystalview/internal/linalg"
)

// SymOp is a symmetry operation in fractional coordinates: f' = R·f + t.
type SymOp struct {
	Rot   [3][3]float64
	Trans [3]float64
	Text  string // operator as written in the file, e.g. "-x,y+1/2,-z+1/2"
}

// Identity returns the x,y,z operation.
func Identity() SymOp {
	return SymOp{
		Rot:  [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Text: "x,y,z",
	}
}

// Apply transforms a fractional coordinate. The result is not wrapped.
func (op SymOp) Apply(f linalg.Vector) linalg.Vector {
	in := linalg.Components(f)
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = op.Trans[i]
		for j := 0; j < 3; j++ {
			out[i] += op.Rot[i][j] * in[j]
		}
	}
	return linalg.FromComponents(out)
}

func (op SymOp) String() string { return op.Text }

// ParseSymOp parses an operator in xyz notation, e.g. "-x+y, -x, z+1/3" or
// "1/2+X,1/2-Y,-Z". Coefficients may be written as "2x" or "2*x".
func ParseSymOp(s string) (SymOp, error) {
	op := SymOp{Text: strings.TrimSpace(s)}
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), ",")
	if len(parts) != 3 {
		return SymOp{}, fmt.Errorf("%w: %q needs three components", ErrBadSymmetry, s)
	}
	for i, p := range parts {
		if err := parseComponent(p, &op.Rot[i], &op.Trans[i]); err != nil {
			return SymOp{}, fmt.Errorf("%w: %q: %v", ErrBadSymmetry, s, err)
		}
	}
	return op, nil
}

func parseComponent(s string, rot *[3]float64, trans *float64) error {
	if s == "" {
		return fmt.Errorf("empty component")
	}
	i := 0
	for i < len(s) {
		sign := 1.0
		if s[i] == '+' || s[i] == '-' {
			if s[i] == '-' {
				sign = -1
			}
			i++
		}
		if i >= len(s) {
			return fmt.Errorf("dangling sign")
		}

		// Optional numeric coefficient or constant, possibly a fraction.
		num, hasNum := 1.0, false
		j := i
		for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
			j++
		}
		if j > i {
			v, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return err
			}
			num, hasNum = v, true
			i = j
			if i < len(s) && s[i] == '/' {
				i++
				k := i
				for k < len(s) && (s[k] >= '0' && s[k] <= '9' || s[k] == '.') {
					k++
				}
				d, err := strconv.ParseFloat(s[i:k], 64)
				if err != nil || d == 0 {
					return fmt.Errorf("bad denominator in %q", s)
				}
				num /= d
				i = k
			}
			if i < len(s) && s[i] == '*' {
				i++
			}
		}

		if i < len(s) && s[i] >= 'x' && s[i] <= 'z' {
			rot[s[i]-'x'] += sign * num
			i++
			continue
		}
		if !hasNum {
			return fmt.Errorf("unexpected %q", s[i:])
		}
		*trans += sign * num
	}
	return nil
}

// expand applies every operation to every site and keeps the distinct
// positions, wrapped into [0, 1). Sites keep their order; images of one site
// are listed in operation order.
func expand(sites []Site, ops []SymOp, tol float64) []Site {
	if len(ops) == 0 {
		ops = []SymOp{Identity()}
	}
	var atoms []Site
	for _, s := range sites {
		first := len(atoms)
		for _, op := range ops {
			f := linalg.Wrap(op.Apply(s.Fract))
			dup := false
			for _, a := range atoms[first:] {
				if linalg.PeriodicDistance(a.Fract, f) < tol {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			img := s
			img.Fract = f
			atoms = append(atoms, img)
		}
	}
	return atoms
}

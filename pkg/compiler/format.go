package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/femto/pkg/domain"
)

// Target is a position where each axis may be left unset.
// Unset axes are omitted from the emitted instruction.
type Target struct {
	X, Y, Z *float64
}

// At returns a target with all three axes set.
func At(x, y, z float64) Target {
	return Target{X: Float(x), Y: Float(y), Z: Float(z)}
}

// Float returns a pointer to v, for building partial targets.
func Float(v float64) *float64 {
	return &v
}

func (t Target) empty() bool {
	return t.X == nil && t.Y == nil && t.Z == nil
}

// Expr is a LINEAR instruction whose axes are controller expressions
// such as "$XPOS". Empty axes are omitted.
type Expr struct {
	X, Y, Z, F string
}

func (e Expr) String() string {
	var args []string
	for _, a := range []struct{ axis, v string }{{"X", e.X}, {"Y", e.Y}, {"Z", e.Z}, {"F", e.F}} {
		if a.v != "" {
			args = append(args, a.axis+a.v)
		}
	}
	return strings.Join(args, " ")
}

// formatArgs renders "X.. Y.. Z.. F.." with fixed decimals for the given axes.
func (c *Compiler) formatArgs(x, y, z, f *float64) (string, error) {
	args := make([]string, 0, 4)
	if x != nil {
		args = append(args, "X"+c.number(*x))
	}
	if y != nil {
		args = append(args, "Y"+c.number(*y))
	}
	if z != nil {
		args = append(args, "Z"+c.number(*z))
	}
	if f != nil {
		if *f < 1e-6 {
			return "", fmt.Errorf("move with F = %g mm/s: %w", *f, domain.ErrZeroFeed)
		}
		args = append(args, "F"+c.number(*f))
	}
	return strings.Join(args, " "), nil
}

func (c *Compiler) number(v float64) string {
	return strconv.FormatFloat(v, 'f', c.params.OutputDigits, 64)
}

// seconds renders a pause in its shortest form.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func variable(name string) string {
	return "$" + strings.TrimPrefix(strings.TrimSpace(name), "$")
}

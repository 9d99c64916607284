package geometry

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Surface is a focus height map sampled on a regular grid. It is used to
// compensate the warp of a glass sample.
type Surface struct {
	xs []float64
	ys []float64
	// zs[i][j] is the height at (xs[i], ys[j]).
	zs [][]float64
}

// FlatSurface returns nil, the surface that never corrects z.
func FlatSurface() *Surface { return nil }

// NewSurface builds a surface from scattered samples lying on a full grid.
func NewSurface(samples []Vec3) (*Surface, error) {
	if len(samples) < 4 {
		return nil, fmt.Errorf("antiwarp surface needs at least 4 samples, given %d", len(samples))
	}

	xs := uniqueSorted(samples, func(v Vec3) float64 { return v.X })
	ys := uniqueSorted(samples, func(v Vec3) float64 { return v.Y })
	if len(xs) < 2 || len(ys) < 2 {
		return nil, fmt.Errorf("antiwarp samples must span at least a 2x2 grid")
	}
	if len(xs)*len(ys) != len(samples) {
		return nil, fmt.Errorf("antiwarp samples do not form a full grid: %d points for %dx%d", len(samples), len(xs), len(ys))
	}

	zs := make([][]float64, len(xs))
	filled := make([][]bool, len(xs))
	for i := range zs {
		zs[i] = make([]float64, len(ys))
		filled[i] = make([]bool, len(ys))
	}
	for _, s := range samples {
		i := indexOf(xs, s.X)
		j := indexOf(ys, s.Y)
		if filled[i][j] {
			return nil, fmt.Errorf("duplicated antiwarp sample at (%g, %g)", s.X, s.Y)
		}
		zs[i][j] = s.Z
		filled[i][j] = true
	}
	return &Surface{xs: xs, ys: ys, zs: zs}, nil
}

// LoadSurface reads "x y z" samples, one per line. Commas, semicolons and
// blank separators are accepted; lines starting with ';' or '#' are skipped.
func LoadSurface(r io.Reader) (*Surface, error) {
	var samples []Vec3
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";") || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		var v [3]float64
		for k, f := range fields {
			val, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: value %d is not a number", line, k+1)
			}
			v[k] = val
		}
		samples = append(samples, Vec3{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read antiwarp samples: %w", err)
	}
	return NewSurface(samples)
}

// At returns the interpolated height at (x, y). Points outside the sampled
// area are clamped to the border. A nil surface is flat.
func (s *Surface) At(x, y float64) float64 {
	if s == nil {
		return 0
	}
	i, tx := locate(s.xs, x)
	j, ty := locate(s.ys, y)
	z00 := s.zs[i][j]
	z10 := s.zs[i+1][j]
	z01 := s.zs[i][j+1]
	z11 := s.zs[i+1][j+1]
	return z00*(1-tx)*(1-ty) + z10*tx*(1-ty) + z01*(1-tx)*ty + z11*tx*ty
}

// Size returns the grid dimensions.
func (s *Surface) Size() (nx, ny int) {
	if s == nil {
		return 0, 0
	}
	return len(s.xs), len(s.ys)
}

func locate(axis []float64, v float64) (int, float64) {
	last := len(axis) - 1
	switch {
	case v <= axis[0]:
		return 0, 0
	case v >= axis[last]:
		return last - 1, 1
	}
	k := sort.SearchFloat64s(axis, v)
	if k > 0 {
		k--
	}
	t := (v - axis[k]) / (axis[k+1] - axis[k])
	return k, t
}

const gridTol = 1e-9

func uniqueSorted(samples []Vec3, key func(Vec3) float64) []float64 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		vals = append(vals, key(s))
	}
	sort.Float64s(vals)
	out := vals[:0:0]
	for _, v := range vals {
		if len(out) == 0 || math.Abs(v-out[len(out)-1]) > gridTol {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(axis []float64, v float64) int {
	for i, a := range axis {
		if math.Abs(a-v) <= gridTol {
			return i
		}
	}
	return -1
}

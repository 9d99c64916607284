package laserpath

import (
	"fmt"
	"math"
	"sort"

	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// Rect is an axis-aligned rectangle in the xy plane.
type Rect struct {
	XMin, YMin, XMax, YMax float64
}

// Dx returns the rectangle width.
func (r Rect) Dx() float64 { return r.XMax - r.XMin }

// Dy returns the rectangle height.
func (r Rect) Dy() float64 { return r.YMax - r.YMin }

// Inset shrinks the rectangle by d on every side.
// The result is empty when d exceeds half of the smallest side.
func (r Rect) Inset(d float64) Rect {
	return Rect{XMin: r.XMin + d, YMin: r.YMin + d, XMax: r.XMax - d, YMax: r.YMax - d}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.XMin >= r.XMax || r.YMin >= r.YMax
}

// Perimeter returns the length of the rectangle border.
func (r Rect) Perimeter() float64 {
	return 2 * (r.Dx() + r.Dy())
}

// TrenchParams describes a column of isolation trenches. Depths grow with z:
// every box is dug from its floor upward in steps of DeltaZ.
type TrenchParams struct {
	XCenter float64 `mapstructure:"x_center" json:"x_center" yaml:"x_center"`
	YMin    float64 `mapstructure:"y_min" json:"y_min" yaml:"y_min"`
	YMax    float64 `mapstructure:"y_max" json:"y_max" yaml:"y_max"`
	// Bridges are the y coordinates of the waveguides crossing the column.
	Bridges []float64 `mapstructure:"bridges" json:"bridges" yaml:"bridges"`

	Bridge         float64 `mapstructure:"bridge" json:"bridge" yaml:"bridge"`
	Length         float64 `mapstructure:"length" json:"length" yaml:"length"`
	HBox           float64 `mapstructure:"h_box" json:"h_box" yaml:"h_box"`
	NBoxZ          int     `mapstructure:"nboxz" json:"nboxz" yaml:"nboxz"`
	ZOff           float64 `mapstructure:"z_off" json:"z_off" yaml:"z_off"`
	DeltaZ         float64 `mapstructure:"deltaz" json:"deltaz" yaml:"deltaz"`
	DeltaFloor     float64 `mapstructure:"delta_floor" json:"delta_floor" yaml:"delta_floor"`
	SafeInnerTurns int     `mapstructure:"safe_inner_turns" json:"safe_inner_turns" yaml:"safe_inner_turns"`
	BeamWaist      float64 `mapstructure:"beam_waist" json:"beam_waist" yaml:"beam_waist"`
	RoundCorner    float64 `mapstructure:"round_corner" json:"round_corner" yaml:"round_corner"`

	SpeedWall   float64 `mapstructure:"speed_wall" json:"speed_wall" yaml:"speed_wall"`
	SpeedFloor  float64 `mapstructure:"speed_floor" json:"speed_floor" yaml:"speed_floor"`
	SpeedClosed float64 `mapstructure:"speed_closed" json:"speed_closed" yaml:"speed_closed"`
	SpeedPos    float64 `mapstructure:"speed_pos" json:"speed_pos" yaml:"speed_pos"`
}

// DefaultTrenchParams returns four stacked 75 um boxes, 1 mm long.
func DefaultTrenchParams() TrenchParams {
	return TrenchParams{
		Bridge:         0.026,
		Length:         1,
		HBox:           0.075,
		NBoxZ:          4,
		ZOff:           -0.020,
		DeltaZ:         0.0015,
		DeltaFloor:     0.001,
		SafeInnerTurns: 5,
		BeamWaist:      0.004,
		RoundCorner:    0.010,
		SpeedWall:      4,
		SpeedFloor:     2,
		SpeedClosed:    5,
		SpeedPos:       2,
	}
}

// Validate reports every invalid field.
func (p TrenchParams) Validate() error {
	var c schema.Checker
	c.Assert(p.YMax > p.YMin, "y_max", "must be greater than y_min", p.YMax)
	c.Positive("length", p.Length)
	c.Positive("h_box", p.HBox)
	c.AtLeast("nboxz", float64(p.NBoxZ), 1)
	c.Positive("deltaz", p.DeltaZ)
	c.Positive("delta_floor", p.DeltaFloor)
	c.NonNegative("safe_inner_turns", float64(p.SafeInnerTurns))
	c.NonNegative("bridge", p.Bridge)
	c.Positive("speed_wall", p.SpeedWall)
	c.Positive("speed_floor", p.SpeedFloor)
	c.Positive("speed_closed", p.SpeedClosed)
	c.Positive("speed_pos", p.SpeedPos)
	return c.Err()
}

// AdjBridge is half the bridge enlarged by the beam waist and the corner radius.
func (p TrenchParams) AdjBridge() float64 {
	return p.Bridge/2 + p.BeamWaist + p.RoundCorner
}

// NRepeat is the number of wall contours needed to cover a box height.
func (p TrenchParams) NRepeat() int {
	return int(math.Abs(math.Ceil((p.HBox - p.ZOff) / p.DeltaZ)))
}

// TotalHeight is the height of the stacked boxes.
func (p TrenchParams) TotalHeight() float64 {
	return float64(p.NBoxZ) * p.HBox
}

// TrenchColumn is a column of trench blocks separated by bridges where the
// waveguides cross it.
type TrenchColumn struct {
	params TrenchParams
	blocks []Rect
}

// NewTrenchColumn splits the column rectangle at the bridges.
func NewTrenchColumn(p TrenchParams) (*TrenchColumn, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bridges := append([]float64(nil), p.Bridges...)
	sort.Float64s(bridges)

	x0, x1 := p.XCenter-p.Length/2, p.XCenter+p.Length/2
	adj := p.AdjBridge()
	y := p.YMin
	var blocks []Rect
	for _, b := range bridges {
		if b <= p.YMin || b >= p.YMax {
			continue
		}
		if r := (Rect{XMin: x0, YMin: y, XMax: x1, YMax: b - adj}); !r.Empty() {
			blocks = append(blocks, r)
		}
		y = b + adj
	}
	if r := (Rect{XMin: x0, YMin: y, XMax: x1, YMax: p.YMax}); !r.Empty() {
		blocks = append(blocks, r)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("trench column at x=%.3f has no room between bridges", p.XCenter)
	}
	return &TrenchColumn{params: p, blocks: blocks}, nil
}

// Blocks returns the trench blocks ordered by y.
func (tc *TrenchColumn) Blocks() []Rect {
	return append([]Rect(nil), tc.blocks...)
}

// Paths returns one toolpath per block.
func (tc *TrenchColumn) Paths() []*Path {
	out := make([]*Path, 0, len(tc.blocks))
	for _, b := range tc.blocks {
		out = append(out, tc.toolpath(b))
	}
	return out
}

// FabricationTime sums the wall and floor times of every block.
func (tc *TrenchColumn) FabricationTime() float64 {
	var t float64
	for _, p := range tc.Paths() {
		t += p.FabricationTime()
	}
	return t
}

// toolpath digs every box of a block, deepest first. A box is a floor
// (inset contours then a zig-zag filling) followed by the wall contours
// climbing toward the surface.
func (tc *TrenchColumn) toolpath(block Rect) *Path {
	p := tc.params
	path := NewPath(Params{Scan: 1, SpeedClosed: p.SpeedClosed, SpeedPos: p.SpeedPos})
	for k := 0; k < p.NBoxZ; k++ {
		floor := p.ZOff + float64(p.NBoxZ-k)*p.HBox
		tc.floor(path, block, floor)
		for l := 0; l < p.NRepeat(); l++ {
			z := floor - float64(l)*p.DeltaZ
			if z < p.ZOff+float64(p.NBoxZ-k-1)*p.HBox {
				break
			}
			contour(path, block, z, p.SpeedWall, l == 0)
		}
		path.close()
	}
	return path
}

func (tc *TrenchColumn) floor(path *Path, block Rect, z float64) {
	p := tc.params
	start := true
	inner := block
	for i := 0; i < p.SafeInnerTurns; i++ {
		r := block.Inset(float64(i) * p.DeltaFloor)
		if r.Empty() {
			return
		}
		contour(path, r, z, p.SpeedFloor, start)
		start = false
		inner = r.Inset(p.DeltaFloor)
	}
	if inner.Empty() {
		return
	}
	zigzag(path, inner, z, p.DeltaFloor, p.SpeedFloor, start)
}

// contour writes the closed border of r at height z. With travel set the
// shutter is closed and the stage positioned on the first corner first.
func contour(path *Path, r Rect, z, f float64, travel bool) {
	corners := []geometry.Vec3{
		geometry.V(r.XMin, r.YMin, z),
		geometry.V(r.XMax, r.YMin, z),
		geometry.V(r.XMax, r.YMax, z),
		geometry.V(r.XMin, r.YMax, z),
		geometry.V(r.XMin, r.YMin, z),
	}
	if travel {
		path.closedTo(corners[0], path.params.SpeedPos)
	}
	for _, c := range corners {
		path.openTo(c, f)
	}
}

// zigzag hatches r with lines spaced by step along its longest side.
func zigzag(path *Path, r Rect, z, step, f float64, travel bool) {
	vertical := r.Dx() <= r.Dy()
	n := int(r.Dx()/step) + 1
	if !vertical {
		n = int(r.Dy()/step) + 1
	}
	for i := 0; i < n; i++ {
		var a, b geometry.Vec3
		if vertical {
			x := r.XMin + float64(i)*step
			a, b = geometry.V(x, r.YMin, z), geometry.V(x, r.YMax, z)
		} else {
			y := r.YMin + float64(i)*step
			a, b = geometry.V(r.XMin, y, z), geometry.V(r.XMax, y, z)
		}
		if i%2 == 1 {
			a, b = b, a
		}
		if i == 0 && travel {
			path.closedTo(a, path.params.SpeedPos)
		}
		path.openTo(a, f)
		path.openTo(b, f)
	}
}

package laserpath

import (
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// WaveguideParams extends Params with the photonic circuit geometry.
type WaveguideParams struct {
	Params `mapstructure:",squash" yaml:",inline"`

	Depth     float64 `mapstructure:"depth" json:"depth" yaml:"depth"`
	Radius    float64 `mapstructure:"radius" json:"radius" yaml:"radius"`
	Pitch     float64 `mapstructure:"pitch" json:"pitch" yaml:"pitch"`
	PitchFA   float64 `mapstructure:"pitch_fa" json:"pitch_fa" yaml:"pitch_fa"`
	IntDist   float64 `mapstructure:"int_dist" json:"int_dist" yaml:"int_dist"`
	IntLength float64 `mapstructure:"int_length" json:"int_length" yaml:"int_length"`
	ArmLength float64 `mapstructure:"arm_length" json:"arm_length" yaml:"arm_length"`
}

// DefaultWaveguideParams returns a single-mode waveguide at 35 um depth.
func DefaultWaveguideParams() WaveguideParams {
	p := DefaultParams()
	p.ZInit = 0.035
	return WaveguideParams{
		Params:  p,
		Depth:   0.035,
		Radius:  15,
		Pitch:   0.080,
		PitchFA: 0.127,
	}
}

// Validate reports every invalid field.
func (p WaveguideParams) Validate() error {
	var c schema.Checker
	c.Merge("params", p.Params.Validate())
	c.Positive("radius", p.Radius)
	c.NonNegative("pitch", p.Pitch)
	c.NonNegative("int_dist", p.IntDist)
	c.NonNegative("int_length", p.IntLength)
	c.NonNegative("arm_length", p.ArmLength)
	return c.Err()
}

// DyBend is the y displacement of a coupler S-bend.
func (p WaveguideParams) DyBend() float64 {
	return 0.5 * (p.Pitch - p.IntDist)
}

// DxBend is the x length of a coupler S-bend.
func (p WaveguideParams) DxBend() (float64, error) {
	return geometry.SBendLength(p.DyBend(), p.Radius)
}

// DxAcc is the x length of a directional coupler.
func (p WaveguideParams) DxAcc() (float64, error) {
	dx, err := p.DxBend()
	if err != nil {
		return 0, err
	}
	return 2*dx + p.IntLength, nil
}

// DxMZI is the x length of a Mach-Zehnder interferometer.
func (p WaveguideParams) DxMZI() (float64, error) {
	dx, err := p.DxBend()
	if err != nil {
		return 0, err
	}
	return 4*dx + 2*p.IntLength + p.ArmLength, nil
}

var errNotStarted = fmt.Errorf("waveguide not started: %w", domain.ErrEmptyPath)

// Waveguide builds a waveguide path segment by segment.
type Waveguide struct {
	*Path
	wp WaveguideParams
}

// NewWaveguide returns an empty waveguide.
func NewWaveguide(p WaveguideParams) *Waveguide {
	return &Waveguide{Path: NewPath(p.Params), wp: p}
}

// Params returns the waveguide parameters.
func (w *Waveguide) Params() WaveguideParams {
	return w.wp
}

func (w *Waveguide) speed(s float64) float64 {
	if s > 0 {
		return s
	}
	return w.wp.Speed
}

func (w *Waveguide) ready() bool {
	if w.err != nil {
		return false
	}
	if len(w.points) == 0 {
		w.fail(errNotStarted)
		return false
	}
	return true
}

// Start opens the shutter at the initial point of the parameters.
func (w *Waveguide) Start() *Waveguide {
	return w.StartAt(w.wp.InitPoint())
}

// StartAt opens the shutter at the given point.
func (w *Waveguide) StartAt(v geometry.Vec3) *Waveguide {
	if w.err != nil {
		return w
	}
	if len(w.points) != 0 {
		w.fail(errors.New("waveguide already started"))
		return w
	}
	w.Add(
		domain.Waypoint{X: v.X, Y: v.Y, Z: v.Z, F: w.wp.SpeedPos, S: domain.ShutterClosed},
		domain.Waypoint{X: v.X, Y: v.Y, Z: v.Z, F: w.wp.SpeedPos, S: domain.ShutterOpen},
	)
	return w
}

// Linear writes a straight segment of displacement d.
// A non-positive speed selects the writing speed of the parameters.
func (w *Waveguide) Linear(d geometry.Vec3, speed float64) *Waveguide {
	if !w.ready() {
		return w
	}
	w.openTo(w.last().Add(d), w.speed(speed))
	return w
}

// LinearTo writes a straight segment to an absolute position.
// Unset axes keep their current value.
func (w *Waveguide) LinearTo(x, y, z *float64, speed float64) *Waveguide {
	if !w.ready() {
		return w
	}
	v := w.last()
	if x != nil {
		v.X = *x
	}
	if y != nil {
		v.Y = *y
	}
	if z != nil {
		v.Z = *z
	}
	w.openTo(v, w.speed(speed))
	return w
}

// Bend writes an S-bend of displacements dy and dz with the given profile.
// Its length is the one of a circular S-bend of the parameters radius.
func (w *Waveguide) Bend(dy, dz float64, profile geometry.Profile, speed float64) *Waveguide {
	if !w.ready() {
		return w
	}
	angle, dx, err := geometry.SBendParameters(math.Hypot(dy, dz), w.wp.Radius)
	if err != nil {
		w.fail(err)
		return w
	}
	if profile == nil {
		profile = geometry.Sin
	}
	f := w.speed(speed)
	start := w.last()
	n := w.wp.subdivisions(2*angle*w.wp.Radius, f)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		k := profile(t)
		w.openTo(geometry.V(start.X+t*dx, start.Y+k*dy, start.Z+k*dz), f)
	}
	return w
}

// Coupler writes the two S-bends of a directional coupler arm joined by the
// interaction length.
func (w *Waveguide) Coupler(dy float64, profile geometry.Profile, speed float64) *Waveguide {
	w.Bend(dy, 0, profile, speed)
	if w.wp.IntLength > 0 {
		w.Linear(geometry.V(w.wp.IntLength, 0, 0), speed)
	}
	return w.Bend(-dy, 0, profile, speed)
}

// MZI writes a Mach-Zehnder interferometer arm: two couplers joined by the
// arm length.
func (w *Waveguide) MZI(dy float64, profile geometry.Profile, speed float64) *Waveguide {
	w.Coupler(dy, profile, speed)
	if w.wp.ArmLength > 0 {
		w.Linear(geometry.V(w.wp.ArmLength, 0, 0), speed)
	}
	return w.Coupler(dy, profile, speed)
}

// Arc writes a circular arc in the xy plane from angle from to angle to
// (radians, counter-clockwise when to > from). The arc starts at the current
// point.
func (w *Waveguide) Arc(from, to, radius float64, speed float64) *Waveguide {
	if !w.ready() {
		return w
	}
	if radius <= 0 {
		w.fail(fmt.Errorf("radius should be a positive value, given %.3f", radius))
		return w
	}
	f := w.speed(speed)
	start := w.last()
	center := start.Sub(geometry.V(radius*math.Cos(from), radius*math.Sin(from), 0))
	n := w.wp.subdivisions(math.Abs(to-from)*radius, f)
	for i := 1; i <= n; i++ {
		theta := from + (to-from)*float64(i)/float64(n)
		w.openTo(geometry.ArcPoint(center, radius, theta), f)
	}
	return w
}

// Spline writes a cubic segment with zero y and z slopes at both ends.
// A nil dx is computed from the curvature radius of the parameters.
func (w *Waveguide) Spline(dx *float64, dy, dz float64, speed float64) *Waveguide {
	if !w.ready() {
		return w
	}
	d, length, err := geometry.SplineParameters(dx, dy, dz, w.wp.Radius)
	if err != nil {
		w.fail(err)
		return w
	}
	f := w.speed(speed)
	p0 := w.last()
	p1 := p0.Add(d)
	m := geometry.V(d.X, 0, 0)
	n := w.wp.subdivisions(length, f)
	for i := 1; i <= n; i++ {
		w.openTo(geometry.Hermite(p0, m, p1, m, float64(i)/float64(n)), f)
	}
	return w
}

// End closes the shutter and returns to the first point at SpeedClosed.
func (w *Waveguide) End() *Waveguide {
	if !w.ready() {
		return w
	}
	first := w.points[0]
	w.closedTo(geometry.V(first.X, first.Y, first.Z), w.wp.SpeedClosed)
	return w
}

package template

import (
	"fmt"
	"strconv"

	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// MeshParams describes a focus-mapping scan over a rectangular sample.
type MeshParams struct {
	// SampleSize is the (x, y) size of the sample in mm.
	SampleSize [2]float64 `mapstructure:"sample_size" json:"sample_size" yaml:"sample_size"`
	Margin     float64    `mapstructure:"margin" json:"margin" yaml:"margin"`
	NX         int        `mapstructure:"nx" json:"nx" yaml:"nx"`
	NY         int        `mapstructure:"ny" json:"ny" yaml:"ny"`
	// Angle is the G84 rotation of the grid in degrees.
	Angle      float64 `mapstructure:"angle" json:"angle" yaml:"angle"`
	Z0         float64 `mapstructure:"z0" json:"z0" yaml:"z0"`
	Speed      float64 `mapstructure:"speed" json:"speed" yaml:"speed"`
	Pause      float64 `mapstructure:"pause" json:"pause" yaml:"pause"`
	PulseTime  float64 `mapstructure:"pulse_time" json:"pulse_time" yaml:"pulse_time"`
	OutputFile string  `mapstructure:"output_file" json:"output_file" yaml:"output_file"`
}

// DefaultMeshParams returns a 5x5 scan of a 20x20 mm sample.
func DefaultMeshParams() MeshParams {
	return MeshParams{
		SampleSize: [2]float64{20, 20},
		Margin:     1,
		NX:         5,
		NY:         5,
		Speed:      5,
		Pause:      0.5,
		PulseTime:  0.01,
		OutputFile: "mesh.txt",
	}
}

// Validate reports every invalid field.
func (p MeshParams) Validate() error {
	var c schema.Checker
	c.Positive("sample_size.x", p.SampleSize[0])
	c.Positive("sample_size.y", p.SampleSize[1])
	c.NonNegative("margin", p.Margin)
	c.Assert(2*p.Margin < p.SampleSize[0] && 2*p.Margin < p.SampleSize[1], "margin", "must be less than half the sample size", p.Margin)
	c.AtLeast("nx", float64(p.NX), 2)
	c.AtLeast("ny", float64(p.NY), 2)
	c.Positive("speed", p.Speed)
	c.NonNegative("pause", p.Pause)
	c.Positive("pulse_time", p.PulseTime)
	c.Required("output_file", p.OutputFile)
	return c.Err()
}

// Pitch returns the distance between two grid points along x and y.
func (p MeshParams) Pitch() (px, py float64) {
	px = (p.SampleSize[0] - 2*p.Margin) / float64(p.NX-1)
	py = (p.SampleSize[1] - 2*p.Margin) / float64(p.NY-1)
	return px, py
}

// Grid returns the points visited by MeshScan, in visiting order and before
// the G84 rotation applied by the controller.
func Grid(p MeshParams) ([]geometry.Vec3, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	px, py := p.Pitch()
	points := make([]geometry.Vec3, 0, p.NX*p.NY)
	for i := 0; i < p.NX; i++ {
		for j := 0; j < p.NY; j++ {
			points = append(points, geometry.V(p.Margin+float64(i)*px, p.Margin+float64(j)*py, p.Z0))
		}
	}
	return points, nil
}

// focusPrompt is shown at every grid point. The operator brings the sample
// surface into focus with the jog panel before answering.
const focusPrompt = "FOCUS ON THE SAMPLE SURFACE, THEN PRESS OK"

// MeshScan emits a complete focus-mapping program. At every grid point the
// stage stops and waits for the operator to focus on the surface. It then
// fires a single laser pulse and appends "x y z" to OutputFile, the format
// read back by geometry.LoadSurface.
func MeshScan(c *compiler.Compiler, p MeshParams) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.Header()
	c.Comment(fmt.Sprintf("MESH SCAN %dx%d", p.NX, p.NY))
	if err := c.Dvar("XSIZE", "YSIZE", "MARGIN", "NX", "NY", "XPITCH", "YPITCH", "XPOS", "YPOS", "ZPOS", "FH", "ANS"); err != nil {
		return err
	}
	c.Assign("XSIZE", number(p.SampleSize[0]))
	c.Assign("YSIZE", number(p.SampleSize[1]))
	c.Assign("MARGIN", number(p.Margin))
	c.Assign("NX", strconv.Itoa(p.NX))
	c.Assign("NY", strconv.Itoa(p.NY))
	c.Assign("XPITCH", "($XSIZE - 2*$MARGIN)/($NX-1)")
	c.Assign("YPITCH", "($YSIZE - 2*$MARGIN)/($NY-1)")

	if p.Angle != 0 {
		c.ClearRotation()
		c.Rotation(p.Angle)
	}

	c.Remove(p.OutputFile)
	c.FileOpen("FH", p.OutputFile, compiler.ModeWrite)
	if err := c.MoveTo(compiler.At(p.Margin, p.Margin, p.Z0), p.Speed); err != nil {
		return err
	}

	c.Tic()
	speed := number(p.Speed)
	if err := c.For("I", p.NX); err != nil {
		return err
	}
	c.Assign("XPOS", "$MARGIN + $I*$XPITCH")
	if err := c.For("J", p.NY); err != nil {
		return err
	}
	c.Assign("YPOS", "$MARGIN + $J*$YPITCH")
	if err := c.LinearExpr(compiler.Expr{X: "$XPOS", Y: "$YPOS", F: speed}); err != nil {
		return err
	}
	if err := c.Dwell(p.Pause); err != nil {
		return err
	}
	if err := c.Prompt("ANS", focusPrompt); err != nil {
		return err
	}
	if err := pulse(c, p.PulseTime); err != nil {
		return err
	}
	c.Assign("ZPOS", "AXISSTATUS(Z, DATAITEM_PositionFeedback)")
	if err := c.FileWrite("FH", "$XPOS", "$YPOS", "$ZPOS"); err != nil {
		return err
	}
	c.EndFor("J")
	c.EndFor("I")
	c.Toc()

	c.FileClose("FH")
	if p.Angle != 0 {
		c.ClearRotation()
	}
	return nil
}

// pulse fires the laser for the given seconds.
func pulse(c *compiler.Compiler, seconds float64) error {
	if err := c.Shutter(domain.ShutterOpen); err != nil {
		return err
	}
	if err := c.Dwell(seconds); err != nil {
		return err
	}
	return c.Shutter(domain.ShutterClosed)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

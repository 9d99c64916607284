package laserpath

import (
	"math"

	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// Params are shared by every laser path.
// Speeds are in mm/s, lengths in mm.
type Params struct {
	Scan        int        `mapstructure:"scan" json:"scan" yaml:"scan"`
	Speed       float64    `mapstructure:"speed" json:"speed" yaml:"speed"`
	XInit       float64    `mapstructure:"x_init" json:"x_init" yaml:"x_init"`
	YInit       float64    `mapstructure:"y_init" json:"y_init" yaml:"y_init"`
	ZInit       float64    `mapstructure:"z_init" json:"z_init" yaml:"z_init"`
	LSafe       float64    `mapstructure:"lsafe" json:"lsafe" yaml:"lsafe"`
	SpeedClosed float64    `mapstructure:"speed_closed" json:"speed_closed" yaml:"speed_closed"`
	SpeedPos    float64    `mapstructure:"speed_pos" json:"speed_pos" yaml:"speed_pos"`
	CmdRateMax  float64    `mapstructure:"cmd_rate_max" json:"cmd_rate_max" yaml:"cmd_rate_max"`
	AccMax      float64    `mapstructure:"acc_max" json:"acc_max" yaml:"acc_max"`
	SampleSize  [2]float64 `mapstructure:"sample_size" json:"sample_size" yaml:"sample_size"`
}

// DefaultParams returns the stage defaults of the lab setup.
func DefaultParams() Params {
	return Params{
		Scan:        1,
		Speed:       1,
		XInit:       -2,
		LSafe:       2,
		SpeedClosed: 5,
		SpeedPos:    0.5,
		CmdRateMax:  1200,
		AccMax:      500,
	}
}

// Validate reports every invalid field.
func (p Params) Validate() error {
	var c schema.Checker
	c.AtLeast("scan", float64(p.Scan), 1)
	c.Positive("speed", p.Speed)
	c.Positive("speed_closed", p.SpeedClosed)
	c.Positive("speed_pos", p.SpeedPos)
	c.Positive("cmd_rate_max", p.CmdRateMax)
	c.Positive("acc_max", p.AccMax)
	c.NonNegative("lsafe", p.LSafe)
	return c.Err()
}

// InitPoint is the starting point of the path.
func (p Params) InitPoint() geometry.Vec3 {
	return geometry.V(p.XInit, p.YInit, p.ZInit)
}

// LVelo is the length needed to reach the writing speed.
func (p Params) LVelo() float64 {
	return 3 * (0.5 * p.Speed * p.Speed / p.AccMax)
}

// DL is the minimum separation between two points at the writing speed.
func (p Params) DL() float64 {
	return p.Speed / p.CmdRateMax
}

// XEnd is the x coordinate where paths end, outside the sample.
func (p Params) XEnd() float64 {
	return p.SampleSize[0] + p.LSafe
}

// subdivisions returns the number of segments needed to sample a curve of the
// given length at speed without exceeding the controller command rate.
func (p Params) subdivisions(length, speed float64) int {
	n := int(math.Ceil(length * p.CmdRateMax / speed))
	if n < 2 {
		n = 2
	}
	return n
}

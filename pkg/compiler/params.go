package compiler

import (
	"path/filepath"
	"strings"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// Params configures a Compiler.
// The mapstructure tags are the keys of the `gcode` section of a job document.
type Params struct {
	Filename  string                 `mapstructure:"filename" json:"filename" yaml:"filename"`
	ExportDir string                 `mapstructure:"export_dir" json:"export_dir,omitempty" yaml:"export_dir,omitempty"`
	Line      domain.FabricationLine `mapstructure:"line" json:"line" yaml:"line"`
	Laser     domain.Laser           `mapstructure:"laser" json:"laser" yaml:"laser"`

	NGlass       float64 `mapstructure:"n_glass" json:"n_glass" yaml:"n_glass"`
	NEnvironment float64 `mapstructure:"n_environment" json:"n_environment" yaml:"n_environment"`

	// Angles are in degrees.
	RotationAngle float64    `mapstructure:"rotation_angle" json:"rotation_angle" yaml:"rotation_angle"`
	AerotechAngle float64    `mapstructure:"aerotech_angle" json:"aerotech_angle" yaml:"aerotech_angle"`
	NewOrigin     [2]float64 `mapstructure:"new_origin" json:"new_origin" yaml:"new_origin"`
	FlipX         bool       `mapstructure:"flip_x" json:"flip_x" yaml:"flip_x"`
	FlipY         bool       `mapstructure:"flip_y" json:"flip_y" yaml:"flip_y"`

	LongPause    float64 `mapstructure:"long_pause" json:"long_pause" yaml:"long_pause"`
	ShortPause   float64 `mapstructure:"short_pause" json:"short_pause" yaml:"short_pause"`
	OutputDigits int     `mapstructure:"output_digits" json:"output_digits" yaml:"output_digits"`
	SpeedPos     float64 `mapstructure:"speed_pos" json:"speed_pos" yaml:"speed_pos"`
	Home         bool    `mapstructure:"home" json:"home" yaml:"home"`

	// Antiwarp is the path of a surface map produced by a mesh scan.
	// It is resolved by the job loader, the compiler only receives the surface.
	Antiwarp string `mapstructure:"antiwarp" json:"antiwarp,omitempty" yaml:"antiwarp,omitempty"`
}

// DefaultParams returns the parameters used in the lab for a given output file.
func DefaultParams(filename string) Params {
	return Params{
		Filename:     filename,
		Line:         domain.LineCapable,
		Laser:        domain.LaserPharos,
		NGlass:       1.50,
		NEnvironment: 1.33,
		LongPause:    0.5,
		ShortPause:   0.05,
		OutputDigits: 6,
		SpeedPos:     5,
	}
}

// Normalize canonicalizes enum fields and angles in place.
func (p *Params) Normalize() error {
	line, err := domain.ParseFabricationLine(string(p.Line))
	if err != nil {
		return err
	}
	laser, err := domain.ParseLaser(string(p.Laser))
	if err != nil {
		return err
	}
	p.Line, p.Laser = line, laser
	p.RotationAngle = geometry.NormalizeDegrees(p.RotationAngle)
	p.AerotechAngle = geometry.NormalizeDegrees(p.AerotechAngle)
	return nil
}

// Validate reports every invalid field.
func (p Params) Validate() error {
	var c schema.Checker
	c.Required("filename", p.Filename)
	c.Positive("n_glass", p.NGlass)
	c.Positive("n_environment", p.NEnvironment)
	c.NonNegative("long_pause", p.LongPause)
	c.NonNegative("short_pause", p.ShortPause)
	c.Assert(p.OutputDigits >= 0 && p.OutputDigits <= 12, "output_digits", "must be between 0 and 12", p.OutputDigits)
	c.Positive("speed_pos", p.SpeedPos)
	if _, err := domain.ParseFabricationLine(string(p.Line)); err != nil {
		c.Assert(false, "line", err.Error(), nil)
	}
	if _, err := domain.ParseLaser(string(p.Laser)); err != nil {
		c.Assert(false, "laser", err.Error(), nil)
	}
	return c.Err()
}

// Neff is the effective refractive index.
func (p Params) Neff() float64 {
	return p.NGlass / p.NEnvironment
}

// ShutterTime is the switching time of the laser shutter in seconds.
func (p Params) ShutterTime() float64 {
	return p.Laser.ShutterTime()
}

// OutputPath returns the file the program is written to.
func (p Params) OutputPath() string {
	name := p.Filename
	if !strings.HasSuffix(name, ".pgm") {
		name += ".pgm"
	}
	if p.ExportDir == "" {
		return name
	}
	return filepath.Join(p.ExportDir, name)
}

// Name is the output file name without directory and extension.
func (p Params) Name() string {
	return strings.TrimSuffix(filepath.Base(p.OutputPath()), ".pgm")
}

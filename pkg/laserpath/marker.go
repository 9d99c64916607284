package laserpath

import (
	"errors"

	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// MarkerParams describes a surface ablation marker.
type MarkerParams struct {
	Params `mapstructure:",squash" yaml:",inline"`

	Depth float64 `mapstructure:"depth" json:"depth" yaml:"depth"`
	Lx    float64 `mapstructure:"lx" json:"lx" yaml:"lx"`
	Ly    float64 `mapstructure:"ly" json:"ly" yaml:"ly"`
}

// DefaultMarkerParams returns a 1 mm x 60 um cross on the surface.
func DefaultMarkerParams() MarkerParams {
	return MarkerParams{
		Params: DefaultParams(),
		Lx:     1.0,
		Ly:     0.060,
	}
}

// Validate reports every invalid field.
func (p MarkerParams) Validate() error {
	var c schema.Checker
	c.Merge("params", p.Params.Validate())
	c.Positive("lx", p.Lx)
	c.Positive("ly", p.Ly)
	return c.Err()
}

// Marker is an ablation marker written on the sample surface.
type Marker struct {
	*Path
	mp MarkerParams
}

// NewMarker returns an empty marker.
func NewMarker(p MarkerParams) *Marker {
	return &Marker{Path: NewPath(p.Params), mp: p}
}

// Cross writes two orthogonal lines of length Lx and Ly centered on
// (center.X, center.Y) at the marker depth.
func (m *Marker) Cross(center geometry.Vec3) *Marker {
	if m.err != nil {
		return m
	}
	if len(m.points) != 0 {
		m.fail(errors.New("marker already written"))
		return m
	}
	z := m.mp.Depth
	f := m.mp.Speed

	m.closedTo(geometry.V(center.X-m.mp.Lx/2, center.Y, z), m.mp.SpeedPos)
	m.openTo(geometry.V(center.X-m.mp.Lx/2, center.Y, z), f)
	m.openTo(geometry.V(center.X+m.mp.Lx/2, center.Y, z), f)
	m.closedTo(geometry.V(center.X, center.Y-m.mp.Ly/2, z), m.mp.SpeedClosed)
	m.openTo(geometry.V(center.X, center.Y-m.mp.Ly/2, z), f)
	m.openTo(geometry.V(center.X, center.Y+m.mp.Ly/2, z), f)
	m.close()
	return m
}

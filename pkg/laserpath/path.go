package laserpath

import (
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
)

// Path is an ordered list of waypoints fabricated Scan times.
type Path struct {
	params Params
	points []domain.Waypoint
	err    error
}

// NewPath returns an empty path.
func NewPath(p Params) *Path {
	return &Path{params: p}
}

// Params returns the path parameters.
func (p *Path) Params() Params {
	return p.params
}

// Err returns the first error met while building the path.
func (p *Path) Err() error {
	return p.err
}

func (p *Path) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Add appends waypoints.
func (p *Path) Add(points ...domain.Waypoint) *Path {
	p.points = append(p.points, points...)
	return p
}

// Points returns a copy of the waypoints.
func (p *Path) Points() []domain.Waypoint {
	out := make([]domain.Waypoint, len(p.points))
	copy(out, p.points)
	return out
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	return len(p.points)
}

// NumScan returns how many times the path is fabricated.
func (p *Path) NumScan() int {
	if p.params.Scan < 1 {
		return 1
	}
	return p.params.Scan
}

// LastPoint returns the last waypoint, if any.
func (p *Path) LastPoint() (domain.Waypoint, bool) {
	if len(p.points) == 0 {
		return domain.Waypoint{}, false
	}
	return p.points[len(p.points)-1], true
}

// Length is the length of a single scan of the path.
func (p *Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.points); i++ {
		l += p.points[i-1].Distance(p.points[i])
	}
	return l
}

// FabricationTime is the time needed to travel every scan of the path.
// Each segment is travelled at the feed rate of its end point.
func (p *Path) FabricationTime() float64 {
	var t float64
	for i := 1; i < len(p.points); i++ {
		if f := p.points[i].F; f > 0 {
			t += p.points[i-1].Distance(p.points[i]) / f
		}
	}
	return float64(p.NumScan()) * t
}

// Simplify drops collinear intermediate waypoints.
func (p *Path) Simplify(tol float64) {
	p.points = geometry.Simplify(p.points, tol)
}

func (p *Path) last() geometry.Vec3 {
	w := p.points[len(p.points)-1]
	return geometry.V(w.X, w.Y, w.Z)
}

// openTo writes to v with the shutter open.
func (p *Path) openTo(v geometry.Vec3, f float64) {
	p.Add(domain.Waypoint{X: v.X, Y: v.Y, Z: v.Z, F: f, S: domain.ShutterOpen})
}

// closedTo closes the shutter where the path is and travels to v.
func (p *Path) closedTo(v geometry.Vec3, f float64) {
	p.close()
	p.Add(domain.Waypoint{X: v.X, Y: v.Y, Z: v.Z, F: f, S: domain.ShutterClosed})
}

// close closes the shutter at the last point.
func (p *Path) close() {
	if w, ok := p.LastPoint(); ok && w.S == domain.ShutterOpen {
		w.S = domain.ShutterClosed
		p.Add(w)
	}
}

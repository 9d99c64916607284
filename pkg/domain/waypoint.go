package domain

import "math"

// ShutterState is the S coordinate of a waypoint.
type ShutterState uint8

const (
	ShutterClosed ShutterState = 0
	ShutterOpen   ShutterState = 1
)

// String returns the PSOCONTROL keyword for the state.
func (s ShutterState) String() string {
	if s == ShutterOpen {
		return "ON"
	}
	return "OFF"
}

// Waypoint is a point of a laser path.
// X, Y and Z are in millimeters, F is the feed rate in mm/s.
type Waypoint struct {
	X float64      `json:"x" yaml:"x"`
	Y float64      `json:"y" yaml:"y"`
	Z float64      `json:"z" yaml:"z"`
	F float64      `json:"f" yaml:"f"`
	S ShutterState `json:"s" yaml:"s"`
}

// Distance returns the euclidean distance between two waypoints.
func (w Waypoint) Distance(o Waypoint) float64 {
	dx, dy, dz := o.X-w.X, o.Y-w.Y, o.Z-w.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// SamePosition reports whether two waypoints share coordinates within tol.
func (w Waypoint) SamePosition(o Waypoint, tol float64) bool {
	return w.Distance(o) <= tol
}

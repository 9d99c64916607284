package geometry

import "github.com/aretw0/femto/pkg/domain"

// Simplify drops intermediate waypoints that lie on the segment joining their
// neighbours within tol. Waypoints where the feed rate or the shutter state
// changes are always kept, so the emitted shutter sequence is unchanged.
func Simplify(points []domain.Waypoint, tol float64) []domain.Waypoint {
	if len(points) < 3 || tol <= 0 {
		out := make([]domain.Waypoint, len(points))
		copy(out, points)
		return out
	}

	out := make([]domain.Waypoint, 0, len(points))
	out = append(out, points[0], points[1])
	for _, p := range points[2:] {
		n := len(out)
		a, b := out[n-2], out[n-1]
		if b.S == p.S && b.F == p.F && a.S == b.S {
			detour := a.Distance(b) + b.Distance(p)
			if detour-a.Distance(p) < tol {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

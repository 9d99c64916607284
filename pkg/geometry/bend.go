package geometry

import (
	"fmt"
	"math"
)

// SBendParameters computes the final angle (radians) and the x displacement of
// a circular S-bend with y displacement dy and curvature radius.
func SBendParameters(dy, radius float64) (angle, dx float64, err error) {
	if radius <= 0 {
		return 0, 0, fmt.Errorf("radius should be a positive value, given %.3f", radius)
	}
	ratio := 1 - math.Abs(dy/2)/radius
	if ratio < -1 {
		return 0, 0, fmt.Errorf("displacement %.3f too large for radius %.3f", dy, radius)
	}
	angle = math.Acos(ratio)
	return angle, 2 * radius * math.Sin(angle), nil
}

// SBendLength returns the x displacement of a circular S-bend.
func SBendLength(dy, radius float64) (float64, error) {
	_, dx, err := SBendParameters(dy, radius)
	return dx, err
}

// SplineParameters resolves the displacements and the curve length of a
// spline segment. When dx is nil it is computed from the combined yz
// displacement as a circular S-bend of the given radius and the length is the
// arc length of the two bends. Otherwise the length is the chord.
func SplineParameters(dx *float64, dy, dz, radius float64) (Vec3, float64, error) {
	if dx != nil {
		d := Vec3{X: *dx, Y: dy, Z: dz}
		return d, d.Norm(), nil
	}
	dyz := math.Hypot(dy, dz)
	angle, x, err := SBendParameters(dyz, radius)
	if err != nil {
		return Vec3{}, 0, err
	}
	return Vec3{X: x, Y: dy, Z: dz}, 2 * angle * radius, nil
}

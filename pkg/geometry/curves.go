package geometry

import "math"

// Profile maps a normalized abscissa t in [0, 1] to a normalized displacement
// in [0, 1]. Profiles shape the transverse displacement of bends.
type Profile func(t float64) float64

// Sin is the raised cosine profile used for sinusoidal S-bends.
func Sin(t float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

// Even is a smoothstep profile with zero curvature at both ends.
func Even(t float64) float64 {
	return t * t * t * (10 - 15*t + 6*t*t)
}

// Linear is the identity profile.
func Linear(t float64) float64 {
	return t
}

// Hermite evaluates a cubic Hermite curve between p0 and p1 with end tangents
// m0 and m1 at parameter t.
func Hermite(p0, m0, p1, m1 Vec3, t float64) Vec3 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return p0.Mul(h00).Add(m0.Mul(h10)).Add(p1.Mul(h01)).Add(m1.Mul(h11))
}

// ArcPoint returns the point at angle theta on a circle in the xy plane.
func ArcPoint(center Vec3, radius, theta float64) Vec3 {
	return Vec3{
		X: center.X + radius*math.Cos(theta),
		Y: center.Y + radius*math.Sin(theta),
		Z: center.Z,
	}
}

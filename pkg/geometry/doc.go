// Package geometry provides the numeric building blocks used by the path
// builders and the compiler: 3D vectors, linear transforms, S-bend and spline
// parameters, toolpath simplification and antiwarp surfaces.
package geometry

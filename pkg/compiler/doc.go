// Package compiler emits motion programs in the AeroTech PGM dialect.
//
// A Compiler buffers instructions in memory and tracks the device state
// (shutter, open loops, loaded programs) while they are appended. Nothing is
// written until Write or WriteFile is called, which first closes the program.
//
//	c, err := compiler.New(compiler.DefaultParams("coupler"))
//	if err != nil {
//	    return err
//	}
//	c.Header()
//	if err := c.WritePath(wg); err != nil {
//	    return err
//	}
//	path, err := c.WriteFile(ctx)
//
// Waypoints go through the transform T = S·R before being emitted: R rotates
// around z by RotationAngle and S = diag(1, 1, 1/neff) compensates the focal
// shift due to the refractive index mismatch between glass and environment.
package compiler

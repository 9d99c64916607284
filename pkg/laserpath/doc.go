// Package laserpath builds waypoint sequences for the structures written by
// the laser: waveguides, ablation markers, raster images, trenches and text
// labels.
//
// Every structure embeds a *Path, which satisfies compiler.Path:
//
//	wg := laserpath.NewWaveguide(laserpath.DefaultWaveguideParams())
//	wg.Start().
//	    Linear(geometry.V(5, 0, 0), 0).
//	    Coupler(wg.Params().DyBend(), geometry.Sin, 0).
//	    Linear(geometry.V(5, 0, 0), 0).
//	    End()
//	if err := wg.Err(); err != nil {
//	    return err
//	}
//	err := c.WritePath(wg)
//
// Builder methods never fail immediately: the first error is kept and every
// following call is a no-op, so a chain is checked once with Err.
package laserpath

/*
Package femto compiles femtosecond laser writing jobs into AeroTech PGM
motion programs.

A job describes the structures to write in a glass sample (waveguides,
markers, raster images, trenches and text labels) together with the
fabrication line parameters. The engine turns it into a single program:
every waypoint is rotated, corrected for the refractive index of the glass
and optionally warped by a measured surface, and the shutter is switched only
when its state changes.

# Concept

The compiler is a pure text emitter. Path builders (pkg/laserpath) produce
waypoints, the compiler (pkg/compiler) turns them into PGM instructions and
the engine in this package ties jobs, program stores and locks together, so
the same compilation can be embedded in a CLI, an HTTP server or an MCP tool.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/femto"
	)

	func main() {
		eng, err := femto.New("")
		if err != nil {
			log.Fatal(err)
		}

		prog, err := eng.CompileFile(context.Background(), "chip.yaml")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(prog.Text)
	}

Programs can be persisted through any ports.ProgramStore (memory, file,
Redis) and jobs can be read from a Loam recipe library by ID.
*/
package femto

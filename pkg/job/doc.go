// Package job loads fabrication job documents and compiles them to programs.
//
// A job is a YAML or JSON document:
//
//	name: couplers
//	gcode:
//	  filename: couplers.pgm
//	  rotation_angle: 0.5
//	objects:
//	  - type: waveguide
//	    count: 2
//	    pitch: 0.080
//	    mirror: true
//	    params: {speed: 20, scan: 6, radius: 15, int_dist: 0.007}
//	    ops:
//	      - {op: start}
//	      - {op: linear, d: [4, 0, 0]}
//	      - {op: mzi, profile: sin}
//	      - {op: linear, d: [4, 0, 0]}
//	      - {op: end}
//
// The raw document is checked against a schema first, then each section is
// decoded with mapstructure so YAML integers, JSON numbers and strings all
// land in the typed parameter structs.
package job

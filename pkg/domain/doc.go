/*
Package domain contains the core models of the femto compiler.

It defines the data that flows between the path builders, the PGM compiler and
the storage adapters. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - Waypoint: a single (X, Y, Z, F, S) tuple of a laser path.
  - Program: a compiled motion program with its statistics.
  - FabricationLine / Laser: hardware selectors that change the emitted text.
*/
package domain

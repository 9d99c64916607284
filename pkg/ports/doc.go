/*
Package ports defines the driven ports (interfaces) of the femto engine.

These interfaces decouple compilation from storage and job sources, allowing
the engine to work with memory, file, Redis and Loam backends.

# Key Interfaces

  - ProgramStore: persists compiled programs by ID.
  - JobLoader: retrieves job documents (e.g., from a Loam recipe library).
  - Locker: serializes concurrent compilations of the same job.
*/
package ports

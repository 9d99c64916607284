package domain

import "errors"

// ErrShutterOpen is returned when an operation requires a closed shutter.
var ErrShutterOpen = errors.New("shutter is open")

// ErrZeroFeed is returned when a movement is requested with a null feed rate.
var ErrZeroFeed = errors.New("feed rate must be greater than zero")

// ErrUnbalancedLoop is returned when FOR/NEXT or REPEAT/ENDREPEAT blocks do not match.
var ErrUnbalancedLoop = errors.New("unbalanced loop instructions")

// ErrNotLoaded is returned when FARCALL references a program that was never loaded.
var ErrNotLoaded = errors.New("program not loaded")

// ErrInvalidState is returned for unknown shutter states.
var ErrInvalidState = errors.New("invalid shutter state")

// ErrProgramNotFound is returned when a program ID cannot be found in the store.
var ErrProgramNotFound = errors.New("program not found")

// ErrJobNotFound is returned when a job ID cannot be found by a loader.
var ErrJobNotFound = errors.New("job not found")

// ErrEmptyPath is returned when a path without waypoints is compiled.
var ErrEmptyPath = errors.New("path has no waypoints")

// ErrPathEscapes is returned when a confined job names a file outside its directory.
var ErrPathEscapes = errors.New("path is outside the job directory")

// ErrClosed is returned when instructions are added to a closed program.
var ErrClosed = errors.New("program is closed")

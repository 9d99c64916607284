package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCompileStart EventType = "compile_start"
	EventCompileEnd   EventType = "compile_end"
	EventProgramSaved EventType = "program_saved"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// CompileEvent describes one compilation.
// Duration, Stats and Err are only set on EventCompileEnd.
type CompileEvent struct {
	EventBase
	// Kind is "job" or "mesh".
	Kind     string        `json:"kind"`
	JobID    string        `json:"job_id,omitempty"`
	Name     string        `json:"name"`
	Objects  int           `json:"objects,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Stats    Stats         `json:"stats"`
	Err      error         `json:"-"`
}

// ProgramEvent describes a program written to a store.
type ProgramEvent struct {
	EventBase
	ProgramID string `json:"program_id"`
	Bytes     int    `json:"bytes"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnCompileStart func(context.Context, *CompileEvent)
	OnCompileEnd   func(context.Context, *CompileEvent)
	OnProgramSaved func(context.Context, *ProgramEvent)
}

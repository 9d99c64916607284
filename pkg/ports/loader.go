package ports

import (
	"context"

	"github.com/aretw0/femto/pkg/job"
)

// JobLoader defines how the engine retrieves job documents.
// This allows the recipe source (Loam, Memory) to be decoupled.
type JobLoader interface {
	// GetJob parses and validates the job with the given ID.
	// Returns domain.ErrJobNotFound if the job does not exist.
	GetJob(ctx context.Context, id string) (*job.Job, error)

	// ListJobs returns the IDs of all available jobs.
	ListJobs(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the ID of every changed job.
	Watch(ctx context.Context) (<-chan string, error)
}

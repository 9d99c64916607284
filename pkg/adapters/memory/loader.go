package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
)

// Loader implements ports.JobLoader over raw documents held in memory.
type Loader struct {
	docs   map[string][]byte
	format job.Format
}

// NewLoader creates a loader from YAML documents keyed by job ID.
func NewLoader(docs map[string]string) *Loader {
	return newLoader(docs, job.FormatYAML)
}

// NewJSONLoader creates a loader from JSON documents keyed by job ID.
func NewJSONLoader(docs map[string]string) *Loader {
	return newLoader(docs, job.FormatJSON)
}

func newLoader(docs map[string]string, format job.Format) *Loader {
	data := make(map[string][]byte, len(docs))
	for k, v := range docs {
		data[k] = []byte(v)
	}
	return &Loader{docs: data, format: format}
}

// GetJob parses the document stored under id.
func (l *Loader) GetJob(ctx context.Context, id string) (*job.Job, error) {
	data, ok := l.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
	}
	j, err := job.Parse(data, l.format)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	j.ID = id
	if j.Name == "" {
		j.Name = id
	}
	return j, nil
}

// ListJobs returns all available job IDs.
func (l *Loader) ListJobs(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

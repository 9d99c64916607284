package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of recipes to the JobLoader interface.
// A recipe is a markdown file whose frontmatter is a job document, or a
// plain JSON/YAML job document.
type Loader struct {
	Repo *loam.TypedRepository[RecipeMetadata]
	// BaseDir resolves relative image and antiwarp paths of the recipes.
	BaseDir string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[RecipeMetadata], baseDir string) *Loader {
	return &Loader{
		Repo:    repo,
		BaseDir: baseDir,
	}
}

// Open initializes a read-only Loam repository at path.
// Strict mode makes every adapter return json.Number for numeric values.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[RecipeMetadata](repo), absPath), nil
}

// GetJob retrieves and validates a recipe.
func (l *Loader) GetJob(ctx context.Context, id string) (*job.Job, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if ids, lerr := l.ListJobs(ctx); lerr == nil && !contains(ids, trimExtension(id)) {
			return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	j, err := job.FromMap(doc.Data.document())
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", id, err)
	}
	j.ID = recipeID(doc.Data.ID, doc.ID)
	j.BaseDir = filepath.Join(l.BaseDir, filepath.Dir(filepath.FromSlash(doc.ID)))
	return j, nil
}

// ListJobs lists all recipes in the repository.
func (l *Loader) ListJobs(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := recipeID(doc.Data.ID, doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// recipeID prefers the id from the metadata over the file name.
func recipeID(metaID, docID string) string {
	if metaID != "" {
		return trimExtension(metaID)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func contains(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}

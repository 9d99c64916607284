package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/femto/internal/fsutil"
	"github.com/aretw0/femto/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// FileCompiler compiles job files.
type FileCompiler interface {
	CompileFile(ctx context.Context, path string) (*domain.Program, error)
}

// Result is the outcome of compiling one job file.
type Result struct {
	Path    string
	Program *domain.Program
	Err     error
}

// IsJobFile reports whether path has a job document extension.
func IsJobFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// ExpandPaths replaces directories with the job files directly inside them.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && IsJobFile(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// CompileAll compiles the job files concurrently, at most limit at a time.
// Results keep the order of paths. Unless keepGoing is set, the first
// failure cancels the compiles still pending and is returned.
func CompileAll(ctx context.Context, c FileCompiler, paths []string, limit int, keepGoing bool) ([]Result, error) {
	results := make([]Result, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, path := range paths {
		eg.Go(func() error {
			results[i].Path = path
			prog, err := c.CompileFile(egCtx, path)
			results[i].Program = prog
			results[i].Err = err
			if err != nil && !keepGoing {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	return results, eg.Wait()
}

// WriteProgram writes the program text into dir and returns the file path.
func WriteProgram(dir string, p *domain.Program) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, p.Filename)
	if err := fsutil.WriteAtomic(path, []byte(p.Text)); err != nil {
		return "", err
	}
	return path, nil
}

package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger  *slog.Logger
	surface *geometry.Surface
}

// WithLogger sets the logger passed to the compiler.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// WithSurface overrides the antiwarp surface named in the job.
func WithSurface(s *geometry.Surface) BuildOption {
	return func(c *buildConfig) {
		c.surface = s
	}
}

// Build compiles every object of the job into a single program.
// The program ID is the job ID when set, a new UUID otherwise.
func Build(ctx context.Context, j *Job, opts ...BuildOption) (*domain.Program, error) {
	cfg := buildConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	copts := []compiler.Option{compiler.WithLogger(cfg.logger)}
	surface := cfg.surface
	if surface == nil && j.Gcode.Antiwarp != "" {
		s, err := j.loadSurface(j.Gcode.Antiwarp)
		if err != nil {
			return nil, err
		}
		surface = s
	}
	if surface != nil {
		copts = append(copts, compiler.WithSurface(surface))
	}

	c, err := compiler.New(j.Gcode, copts...)
	if err != nil {
		return nil, fmt.Errorf("gcode: %w", err)
	}

	c.Header()
	for i, obj := range j.Objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths, err := j.paths(obj)
		if err != nil {
			return nil, fmt.Errorf("objects[%d] (%s): %w", i, obj.Type, err)
		}
		name := obj.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", obj.Type, i)
		}
		for k, p := range paths {
			if len(paths) > 1 {
				c.Comment(fmt.Sprintf("%s (%d/%d)", name, k+1, len(paths)))
			} else {
				c.Comment(name)
			}
			if err := c.WritePath(p); err != nil {
				return nil, fmt.Errorf("objects[%d] (%s): %w", i, obj.Type, err)
			}
		}
		cfg.logger.Debug("object compiled", "index", i, "type", obj.Type, "paths", len(paths))
	}

	prog, err := c.Program()
	if err != nil {
		return nil, err
	}
	prog.ID = j.ID
	if prog.ID == "" {
		prog.ID = uuid.NewString()
	}
	if j.Name != "" {
		prog.Name = j.Name
	}
	return prog, nil
}

func (j *Job) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || j.BaseDir == "" {
		return path
	}
	return filepath.Join(j.BaseDir, path)
}

// open opens a file named by the job. A confined job may only open
// local paths beneath BaseDir, symlinks included.
func (j *Job) open(path string) (*os.File, error) {
	if !j.Confined {
		return os.Open(j.resolve(path))
	}
	if !filepath.IsLocal(path) {
		return nil, fmt.Errorf("%w: %q", domain.ErrPathEscapes, path)
	}
	dir := j.BaseDir
	if dir == "" {
		dir = "."
	}
	return os.OpenInRoot(dir, path)
}

func (j *Job) loadSurface(path string) (*geometry.Surface, error) {
	f, err := j.open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open antiwarp surface: %w", err)
	}
	defer f.Close()
	s, err := geometry.LoadSurface(f)
	if err != nil {
		return nil, fmt.Errorf("antiwarp %s: %w", path, err)
	}
	return s, nil
}

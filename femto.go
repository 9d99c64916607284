package femto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	loamAdapter "github.com/aretw0/femto/pkg/adapters/loam"
	"github.com/aretw0/femto/pkg/adapters/memory"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/ports"
	"github.com/aretw0/femto/pkg/template"
)

// ErrNoLoader is returned by the operations that need a job library when the
// engine has none.
var ErrNoLoader = errors.New("no job library configured")

// Engine is the high-level entry point for the femto library.
// It compiles jobs and mesh scans and persists the resulting programs.
// Safe for concurrent use when its store, loader and locker are.
type Engine struct {
	store   ports.ProgramStore
	loader  ports.JobLoader
	locker  ports.Locker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom JobLoader, bypassing the default Loam initialization.
func WithLoader(l ports.JobLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets the program store (default: in memory).
func WithStore(s ports.ProgramStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker sets the locker that serializes compilations of the same job
// (default: in process).
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
// A non-empty libraryPath opens a Loam recipe library there, unless
// WithLoader is given.
func New(libraryPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{lockTTL: time.Minute}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil && libraryPath != "" {
		loader, err := loamAdapter.Open(libraryPath)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.locker == nil {
		eng.locker = memory.NewLocker()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return eng, nil
}

// Store returns the program store used by the engine.
func (e *Engine) Store() ports.ProgramStore {
	return e.store
}

// Loader returns the job library, nil if none is configured.
func (e *Engine) Loader() ports.JobLoader {
	return e.loader
}

// Compile builds a program from a decoded job.
// Compilations of jobs with the same ID are serialized through the locker.
func (e *Engine) Compile(ctx context.Context, j *job.Job) (*domain.Program, error) {
	if j.ID != "" {
		unlock, err := e.locker.Lock(ctx, "job:"+j.ID, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock job %s: %w", j.ID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release job lock", "job_id", j.ID, "error", err)
			}
		}()
	}

	event := &domain.CompileEvent{
		Kind:    "job",
		JobID:   j.ID,
		Name:    j.Name,
		Objects: len(j.Objects),
	}
	return e.observe(ctx, event, func() (*domain.Program, error) {
		return job.Build(ctx, j, job.WithLogger(e.logger.With("job", j.Name)))
	})
}

// CompileFile loads a YAML or JSON job file and compiles it.
func (e *Engine) CompileFile(ctx context.Context, path string) (*domain.Program, error) {
	j, err := job.Load(path)
	if err != nil {
		return nil, err
	}
	return e.Compile(ctx, j)
}

// CompileJob compiles a job of the library by ID.
func (e *Engine) CompileJob(ctx context.Context, id string) (*domain.Program, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	j, err := e.loader.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Compile(ctx, j)
}

// Jobs lists the IDs of the library jobs.
func (e *Engine) Jobs(ctx context.Context) ([]string, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	return e.loader.ListJobs(ctx)
}

// MeshScan compiles a focus-mapping program for the given fabrication line.
func (e *Engine) MeshScan(ctx context.Context, gcode compiler.Params, p template.MeshParams) (*domain.Program, error) {
	event := &domain.CompileEvent{Kind: "mesh", Name: gcode.Filename}
	return e.observe(ctx, event, func() (*domain.Program, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := compiler.New(gcode, compiler.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("gcode: %w", err)
		}
		if err := template.MeshScan(c, p); err != nil {
			return nil, fmt.Errorf("mesh: %w", err)
		}
		prog, err := c.Program()
		if err != nil {
			return nil, err
		}
		prog.ID = uuid.NewString()
		return prog, nil
	})
}

func (e *Engine) observe(ctx context.Context, event *domain.CompileEvent, run func() (*domain.Program, error)) (*domain.Program, error) {
	start := time.Now()
	event.EventBase = domain.EventBase{Timestamp: start, Type: domain.EventCompileStart}
	if e.hooks.OnCompileStart != nil {
		e.hooks.OnCompileStart(ctx, event)
	}

	prog, err := run()

	end := *event
	end.EventBase = domain.EventBase{Timestamp: time.Now(), Type: domain.EventCompileEnd}
	end.Duration = time.Since(start)
	end.Err = err
	if prog != nil {
		end.Stats = prog.Stats
		end.Name = prog.Name
	}
	if e.hooks.OnCompileEnd != nil {
		e.hooks.OnCompileEnd(ctx, &end)
	}
	if err != nil {
		e.logger.Debug("compilation failed", "kind", event.Kind, "name", event.Name, "error", err)
		return nil, err
	}
	return prog, nil
}

// Save persists a program in the configured store.
func (e *Engine) Save(ctx context.Context, p *domain.Program) error {
	if p.ID == "" {
		return errors.New("program id cannot be empty")
	}
	if err := e.store.Save(ctx, p); err != nil {
		return err
	}
	if e.hooks.OnProgramSaved != nil {
		e.hooks.OnProgramSaved(ctx, &domain.ProgramEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventProgramSaved},
			ProgramID: p.ID,
			Bytes:     len(p.Text),
		})
	}
	return nil
}

// Load retrieves a stored program.
func (e *Engine) Load(ctx context.Context, id string) (*domain.Program, error) {
	return e.store.Load(ctx, id)
}

// Delete removes a stored program.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Programs lists the IDs of the stored programs.
func (e *Engine) Programs(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Watch returns a channel that receives the IDs of changed library jobs.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

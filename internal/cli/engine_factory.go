package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/adapters/file"
	"github.com/aretw0/femto/pkg/adapters/memory"
	"github.com/aretw0/femto/pkg/adapters/redis"
	"github.com/aretw0/femto/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Store backends selectable with --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// EngineOptions contains the configuration shared by the commands that
// build an engine.
type EngineOptions struct {
	LibraryPath   string
	Store         string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ProgramTTL    time.Duration
	// Registerer receives the compile metrics; nil disables them.
	Registerer prometheus.Registerer
}

// NewEngine initializes a femto engine with standard CLI conventions.
// The returned close function releases the store connection.
func NewEngine(opts EngineOptions, logger *slog.Logger) (*femto.Engine, func() error, error) {
	engineOpts := []femto.Option{femto.WithLogger(logger)}
	closer := func() error { return nil }

	switch opts.Store {
	case "", StoreMemory:
		engineOpts = append(engineOpts, femto.WithStore(memory.NewStore()))
	case StoreFile:
		engineOpts = append(engineOpts, femto.WithStore(file.New(opts.StorePath)))
	case StoreRedis:
		var storeOpts []redis.Option
		if opts.ProgramTTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(opts.ProgramTTL))
		}
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		engineOpts = append(engineOpts,
			femto.WithStore(store),
			femto.WithLocker(redis.NewLocker(store.Client(), "femto:"), time.Minute),
		)
		closer = store.Close
		logger.Debug("Using redis program store", "addr", opts.RedisAddr, "db", opts.RedisDB)
	default:
		return nil, nil, fmt.Errorf("unknown store %q (use memory, file or redis)", opts.Store)
	}

	// Metrics collectors log every compile event too.
	metrics := observability.NewMetrics(opts.Registerer)
	engineOpts = append(engineOpts, femto.WithLifecycleHooks(metrics.Hooks(logger)))

	engine, err := femto.New(opts.LibraryPath, engineOpts...)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, closer, nil
}

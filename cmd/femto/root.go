package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/internal/cli"
	"github.com/aretw0/femto/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "femto",
	Short: "femto compiles femtosecond laser writing jobs into AeroTech PGM programs",
	Long: `femto turns job documents (YAML or JSON) describing waveguides, markers,
rasters, trenches and labels into G-code programs for the A3200 controller.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.Bool("log-json", false, "Write logs as JSON lines")
	flags.String("library", "", "Directory of a Loam recipe library")
	flags.String("store", cli.StoreMemory, "Program store: memory, file or redis")
	flags.String("store-path", ".femto/programs", "Directory of the file store")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis store")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("program-ttl", 0, "Expiration of programs in the redis store (0 keeps them)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("log-json")
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, asJSON), nil
}

// newEngine builds the engine from the persistent flags.
func newEngine(cmd *cobra.Command, reg prometheus.Registerer) (*femto.Engine, func() error, *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	flags := cmd.Flags()
	opts := cli.EngineOptions{Registerer: reg}
	opts.LibraryPath, _ = flags.GetString("library")
	opts.Store, _ = flags.GetString("store")
	opts.StorePath, _ = flags.GetString("store-path")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.ProgramTTL, _ = flags.GetDuration("program-ttl")

	engine, closeFn, err := cli.NewEngine(opts, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine, closeFn, logger, nil
}

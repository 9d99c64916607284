package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/internal/cli"
	"github.com/aretw0/femto/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [job files or directories...]",
	Short: "Compile job documents into PGM programs",
	Long: `Compiles every job document (.yaml, .yml, .json) into a .pgm program in the
output directory and prints a report with the estimated fabrication time.

With --watch the jobs are recompiled whenever they change on disk.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringP("output", "o", ".", "Directory the programs are written to")
	compileCmd.Flags().IntP("jobs", "j", 4, "Number of jobs compiled concurrently")
	compileCmd.Flags().Bool("keep-going", false, "Compile the remaining jobs after a failure")
	compileCmd.Flags().Bool("headless", false, "Print one summary line per program")
	compileCmd.Flags().Bool("save", false, "Also save programs to the program store")
	compileCmd.Flags().BoolP("watch", "w", false, "Recompile jobs when they change")
}

type compileRun struct {
	engine  *femto.Engine
	logger  *slog.Logger
	printer *femto.Printer
	output  string
	save    bool
}

func runCompile(cmd *cobra.Command, args []string) error {
	engine, closeFn, logger, err := newEngine(cmd, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	limit, _ := flags.GetInt("jobs")
	keepGoing, _ := flags.GetBool("keep-going")
	headless, _ := flags.GetBool("headless")
	save, _ := flags.GetBool("save")
	watch, _ := flags.GetBool("watch")

	run := &compileRun{
		engine:  engine,
		logger:  logger,
		printer: tui.NewPrinter(os.Stdout, headless),
		output:  output,
		save:    save,
	}

	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	paths, err := cli.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no job files found")
	}

	results, err := cli.CompileAll(ctx, engine, paths, limit, keepGoing || watch)
	failed := run.report(ctx, results)
	if !watch {
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d jobs failed", failed, len(paths))
		}
		return nil
	}

	if !headless && tui.IsTerminal(os.Stdout) {
		tui.PrintBanner(os.Stdout, femto.Version)
	}
	watcher, err := cli.NewWatcher(args, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl+C to stop)...")
	return watcher.Run(ctx, 100*time.Millisecond, func(path string) {
		prog, err := engine.CompileFile(ctx, path)
		run.report(ctx, []cli.Result{{Path: path, Program: prog, Err: err}})
	})
}

// report writes and prints the compiled programs and returns the number of failures.
func (r *compileRun) report(ctx context.Context, results []cli.Result) int {
	failed := 0
	for _, res := range results {
		if res.Program == nil {
			if res.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
			}
			continue
		}
		path, err := cli.WriteProgram(r.output, res.Program)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, err)
			continue
		}
		r.logger.Info("Program written", "job", res.Path, "path", path)
		if r.save {
			if err := r.engine.Save(ctx, res.Program); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, err)
				continue
			}
		}
		if err := r.printer.Print(res.Program); err != nil {
			r.logger.Error("Report failed", "error", err)
		}
	}
	return failed
}

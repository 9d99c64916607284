package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/internal/cli"
	"github.com/aretw0/femto/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Work with a recipe library",
	Long: `A recipe library is a directory of markdown recipes whose frontmatter holds
a job document. Select it with --library.`,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the jobs of the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeFn, _, err := newLibraryEngine(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ids, err := engine.Jobs(context.Background())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var libraryCompileCmd = &cobra.Command{
	Use:   "compile [job ids...]",
	Short: "Compile jobs of the library by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeFn, logger, err := newLibraryEngine(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		output, _ := cmd.Flags().GetString("output")
		headless, _ := cmd.Flags().GetBool("headless")
		save, _ := cmd.Flags().GetBool("save")
		printer := tui.NewPrinter(os.Stdout, headless)
		ctx := context.Background()

		for _, id := range args {
			prog, err := engine.CompileJob(ctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			path, err := cli.WriteProgram(output, prog)
			if err != nil {
				return err
			}
			logger.Info("Program written", "job", id, "path", path)
			if save {
				if err := engine.Save(ctx, prog); err != nil {
					return err
				}
			}
			if err := printer.Print(prog); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd, libraryCompileCmd)

	libraryCompileCmd.Flags().StringP("output", "o", ".", "Directory the programs are written to")
	libraryCompileCmd.Flags().Bool("headless", false, "Print one summary line per program")
	libraryCompileCmd.Flags().Bool("save", false, "Also save programs to the program store")
}

func newLibraryEngine(cmd *cobra.Command) (*femto.Engine, func() error, *slog.Logger, error) {
	if path, _ := cmd.Flags().GetString("library"); path == "" {
		return nil, nil, nil, errors.New("--library is required")
	}
	return newEngine(cmd, nil)
}

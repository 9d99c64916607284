package main

import (
	"context"
	"fmt"

	"github.com/aretw0/femto/internal/cli"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [job files or directories...]",
	Short: "Check job documents without writing programs",
	Long: `Parses every job document and dry-runs its compilation, reporting each
invalid field and any path the controller could not execute.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeFn, _, err := newEngine(cmd, nil)
		if err != nil {
			return err
		}
		defer closeFn()

		paths, err := cli.ExpandPaths(args)
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range paths {
			j, err := job.Load(path)
			if err == nil {
				_, err = engine.Compile(context.Background(), j)
			}
			if err != nil {
				failed++
				printInvalid(cmd, path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed: %d of %d jobs are invalid", failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func printInvalid(cmd *cobra.Command, path string, err error) {
	fields := schema.ValidationErrors(err)
	if len(fields) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", path)
	for _, f := range fields {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", f)
	}
}

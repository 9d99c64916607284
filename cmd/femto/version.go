package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/femto"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of femto",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("femto version %s\n", strings.TrimSpace(femto.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

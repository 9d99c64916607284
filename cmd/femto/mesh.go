package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/femto/internal/cli"
	"github.com/aretw0/femto/internal/presentation/tui"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/template"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// meshConfig is the layout of a --config document.
type meshConfig struct {
	Gcode compiler.Params     `mapstructure:"gcode"`
	Mesh  template.MeshParams `mapstructure:"mesh"`
}

var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Generate a surface mesh scan program",
	Long: `Generates a program that visits a grid of points over the sample and logs
the focus position of each one, producing the surface map used for antiwarp.`,
	Args: cobra.NoArgs,
	RunE: runMesh,
}

func init() {
	rootCmd.AddCommand(meshCmd)

	flags := meshCmd.Flags()
	flags.String("config", "", "YAML document with gcode and mesh sections")
	flags.String("filename", "mesh", "Program filename")
	flags.StringP("output", "o", ".", "Directory the program is written to")
	flags.Int("nx", 0, "Grid points along x")
	flags.Int("ny", 0, "Grid points along y")
	flags.Float64Slice("sample-size", nil, "Sample size x,y in mm")
	flags.Float64("margin", -1, "Distance of the grid from the sample edges in mm")
	flags.Bool("headless", false, "Print one summary line")
}

func runMesh(cmd *cobra.Command, args []string) error {
	engine, closeFn, _, err := newEngine(cmd, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	flags := cmd.Flags()
	filename, _ := flags.GetString("filename")
	cfg := meshConfig{
		Gcode: compiler.DefaultParams(filename),
		Mesh:  template.DefaultMeshParams(),
	}
	if path, _ := flags.GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := job.Decode(raw, &cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if flags.Changed("nx") {
		cfg.Mesh.NX, _ = flags.GetInt("nx")
	}
	if flags.Changed("ny") {
		cfg.Mesh.NY, _ = flags.GetInt("ny")
	}
	if flags.Changed("margin") {
		cfg.Mesh.Margin, _ = flags.GetFloat64("margin")
	}
	if flags.Changed("sample-size") {
		size, _ := flags.GetFloat64Slice("sample-size")
		if len(size) != 2 {
			return fmt.Errorf("--sample-size needs two values, got %d", len(size))
		}
		cfg.Mesh.SampleSize = [2]float64{size[0], size[1]}
	}
	if flags.Changed("filename") {
		cfg.Gcode.Filename = filename
	}

	prog, err := engine.MeshScan(context.Background(), cfg.Gcode, cfg.Mesh)
	if err != nil {
		return err
	}
	output, _ := flags.GetString("output")
	if _, err := cli.WriteProgram(output, prog); err != nil {
		return err
	}
	headless, _ := flags.GetBool("headless")
	return tui.NewPrinter(os.Stdout, headless).Print(prog)
}

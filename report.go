package femto

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/femto/pkg/domain"
)

// ContentRenderer is a function that transforms the report before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Report renders a markdown summary of a compiled program.
func Report(p *domain.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| file | `%s` |\n", p.Filename)
	fmt.Fprintf(&b, "| id | `%s` |\n", p.ID)
	fmt.Fprintf(&b, "| instructions | %d |\n", p.Stats.Instructions)
	fmt.Fprintf(&b, "| moves | %d |\n", p.Stats.Moves)
	fmt.Fprintf(&b, "| shutter toggles | %d |\n", p.Stats.ShutterToggles)
	fmt.Fprintf(&b, "| path length | %.3f mm |\n", p.Stats.PathLength)
	fmt.Fprintf(&b, "| dwell time | %.1f s |\n", p.Stats.DwellTime)
	fmt.Fprintf(&b, "| estimated time | %s |\n", Duration(p.Stats.EstimatedTime))
	return b.String()
}

// Duration formats seconds as a rounded time.Duration.
func Duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}

// Printer writes program reports, optionally through a renderer.
type Printer struct {
	Output   io.Writer
	Renderer ContentRenderer
	// Headless prints a single summary line instead of the report.
	Headless bool
}

// Print writes the report of p.
func (pr *Printer) Print(p *domain.Program) error {
	if pr.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if pr.Headless {
		_, err := fmt.Fprintf(pr.Output, "%s\t%d instructions\t%s\n", p.Filename, p.Stats.Instructions, Duration(p.Stats.EstimatedTime))
		return err
	}

	text := Report(p)
	if pr.Renderer != nil {
		rendered, err := pr.Renderer(text)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		text = rendered
	}
	_, err := io.WriteString(pr.Output, text)
	return err
}

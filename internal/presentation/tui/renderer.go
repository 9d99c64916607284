package tui

import (
	"io"
	"os"

	"github.com/aretw0/femto"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a renderer that turns program reports into styled
// terminal output using glamour.
func NewRenderer() (femto.ContentRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewPrinter returns a report printer for w. Reports are rendered with
// glamour on terminals and written as plain markdown elsewhere.
func NewPrinter(w io.Writer, headless bool) *femto.Printer {
	p := &femto.Printer{Output: w, Headless: headless}
	if !headless && IsTerminal(w) {
		if r, err := NewRenderer(); err == nil {
			p.Renderer = r
		}
	}
	return p
}

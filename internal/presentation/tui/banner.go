package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the femto banner with the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`   __                _        `, "#38bdf8"},
		{`  / _|___ _ __  _ __| |_ ___  `, "#818cf8"},
		{` |  _/ -_) '  \| '_ \  _/ _ \ `, "#a78bfa"},
		{` |_| \___|_|_|_| .__/\__\___/ `, "#c084fc"},
		{`               |_|            `, "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(" v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}

package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)

	out, err := render("# chip\n\n| a | b |\n|---|---|\n| file | `chip.pgm` |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "chip.pgm")
}

func TestNewPrinter_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))

	p := NewPrinter(&buf, false)
	assert.Nil(t, p.Renderer)

	require.NoError(t, p.Print(&domain.Program{Name: "chip", Filename: "chip.pgm"}))
	assert.Contains(t, buf.String(), "# chip")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
}

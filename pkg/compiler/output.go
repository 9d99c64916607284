package compiler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/femto/internal/fsutil"
	"github.com/aretw0/femto/pkg/domain"
)

// Stats returns the program statistics so far. Open loops are counted as if
// they were closed now.
func (c *Compiler) Stats() domain.Stats {
	folded := make([]frame, len(c.frames))
	copy(folded, c.frames)
	for i := len(folded) - 1; i > 0; i-- {
		folded[i-1].add(folded[i])
	}
	total := folded[0]

	instructions := 0
	for _, line := range strings.Split(c.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, ";") {
			instructions++
		}
	}

	return domain.Stats{
		Instructions:   instructions,
		Moves:          c.moves,
		ShutterToggles: total.toggles,
		DwellTime:      total.dwell,
		PathLength:     total.length,
		EstimatedTime:  total.travel + total.dwell + total.shutter,
	}
}

// Program closes the compiler and returns the compiled program.
// The caller assigns the ID.
func (c *Compiler) Program() (*domain.Program, error) {
	if err := c.Close(); err != nil {
		return nil, err
	}
	return &domain.Program{
		Name:      c.params.Name(),
		Filename:  c.params.Name() + ".pgm",
		Text:      c.String(),
		Stats:     c.Stats(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Write closes the compiler and writes the program text to w.
func (c *Compiler) Write(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Close(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, c.String()); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	return nil
}

// WriteFile closes the compiler and writes the program to Params.OutputPath.
// It returns the written path.
func (c *Compiler) WriteFile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.Close(); err != nil {
		return "", err
	}
	path := c.params.OutputPath()
	if err := fsutil.WriteAtomic(path, []byte(c.String())); err != nil {
		return "", err
	}
	c.logger.Info("G-code compilation completed", "path", path)
	return path, nil
}

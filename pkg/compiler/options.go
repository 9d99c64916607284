package compiler

import (
	"log/slog"

	"github.com/aretw0/femto/pkg/geometry"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compiler warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithSurface enables the antiwarp correction: the surface height at the
// transformed (x, y) is added to every emitted z.
func WithSurface(s *geometry.Surface) Option {
	return func(c *Compiler) {
		c.warp = s
	}
}

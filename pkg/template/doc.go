// Package template emits parameterized programs whose loops run on the
// controller instead of being unrolled at compile time.
package template

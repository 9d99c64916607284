package schema

import "fmt"

// Checker collects numeric constraint violations.
// The zero value is ready to use.
type Checker struct {
	errs []error
}

func (c *Checker) fail(key, reason string, value any) {
	c.errs = append(c.errs, &ValidationError{Key: key, Reason: reason, Value: value})
}

// Positive requires v > 0.
func (c *Checker) Positive(key string, v float64) {
	if !(v > 0) {
		c.fail(key, "must be positive", v)
	}
}

// NonNegative requires v >= 0.
func (c *Checker) NonNegative(key string, v float64) {
	if !(v >= 0) {
		c.fail(key, "must not be negative", v)
	}
}

// AtLeast requires v >= min.
func (c *Checker) AtLeast(key string, v, min float64) {
	if !(v >= min) {
		c.fail(key, fmt.Sprintf("must be at least %g", min), v)
	}
}

// Below requires v < max.
func (c *Checker) Below(key string, v, max float64) {
	if !(v < max) {
		c.fail(key, fmt.Sprintf("must be less than %g", max), v)
	}
}

// Required requires a non-empty string.
func (c *Checker) Required(key, v string) {
	if v == "" {
		c.fail(key, "required", nil)
	}
}

// Assert records reason when ok is false.
func (c *Checker) Assert(ok bool, key, reason string, value any) {
	if !ok {
		c.fail(key, reason, value)
	}
}

// Merge appends the failures of err, nesting their keys under prefix.
func (c *Checker) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	if errs := ValidationErrors(Prefix(prefix, err)); errs != nil {
		c.errs = append(c.errs, errs...)
		return
	}
	c.errs = append(c.errs, err)
}

// Err returns nil or an *AggregateError with every failure.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: c.errs}
}

package job

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a raw document value into out, a pointer to a struct or
// slice. Numbers are converted weakly and unknown keys are rejected. Fields
// missing from input keep the value already in out, so defaults can be set
// before decoding.
func Decode(input, out any) error {
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return dec.Decode(input)
}

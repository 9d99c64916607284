// Package schema validates job documents before they are decoded.
//
// Two tools live here. A Schema maps document keys to expected types and is
// checked against the raw maps produced by the YAML/JSON parsers:
//
//	objectSchema := schema.Schema{
//	    "type":   schema.OneOf("waveguide", "marker"),
//	    "params": schema.Optional(schema.Map()),
//	}
//	err := schema.Validate(objectSchema, raw)
//
// A Checker accumulates numeric constraints on already decoded parameters:
//
//	var c schema.Checker
//	c.Positive("speed", p.Speed)
//	c.AtLeast("scan", float64(p.Scan), 1)
//	return c.Err()
//
// Both report failures as *ValidationError values collected in an
// *AggregateError.
package schema

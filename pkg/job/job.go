package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/schema"
)

// Format is the encoding of a job document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Object types.
const (
	TypeWaveguide = "waveguide"
	TypeMarker    = "marker"
	TypeRaster    = "raster"
	TypeTrench    = "trench"
	TypeLabel     = "label"
)

// Object is a structure of the job. Params and Ops stay raw until Build
// decodes them for the object type.
type Object struct {
	Type   string           `mapstructure:"type" json:"type" yaml:"type"`
	Name   string           `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Params map[string]any   `mapstructure:"params" json:"params,omitempty" yaml:"params,omitempty"`
	Ops    []map[string]any `mapstructure:"ops" json:"ops,omitempty" yaml:"ops,omitempty"`

	// Count waveguides are written Pitch apart along y. With Mirror the
	// y displacements of every other copy are reversed.
	Count  int     `mapstructure:"count" json:"count,omitempty" yaml:"count,omitempty"`
	Pitch  float64 `mapstructure:"pitch" json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Mirror bool    `mapstructure:"mirror" json:"mirror,omitempty" yaml:"mirror,omitempty"`

	Center   []float64 `mapstructure:"center" json:"center,omitempty" yaml:"center,omitempty"`
	Image    string    `mapstructure:"image" json:"image,omitempty" yaml:"image,omitempty"`
	Text     string    `mapstructure:"text" json:"text,omitempty" yaml:"text,omitempty"`
	Simplify float64   `mapstructure:"simplify" json:"simplify,omitempty" yaml:"simplify,omitempty"`
}

// Job is a decoded job document.
type Job struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Gcode   compiler.Params `json:"gcode"`
	Objects []Object        `json:"objects"`
	// BaseDir resolves relative image and antiwarp paths.
	BaseDir string `json:"-"`
	// Confined rejects absolute paths and paths leaving BaseDir. It is
	// set for jobs received over the network.
	Confined bool `json:"-"`
}

var documentSchema = schema.Schema{
	"id":      schema.Optional(schema.String()),
	"name":    schema.Optional(schema.String()),
	"gcode":   schema.Map(),
	"objects": schema.Slice(schema.Map()),
}

var objectSchema = schema.Schema{
	"type":     schema.OneOf(TypeWaveguide, TypeMarker, TypeRaster, TypeTrench, TypeLabel),
	"name":     schema.Optional(schema.String()),
	"params":   schema.Optional(schema.Map()),
	"ops":      schema.Optional(schema.Slice(schema.Map())),
	"count":    schema.Optional(schema.Int()),
	"pitch":    schema.Optional(schema.Float()),
	"mirror":   schema.Optional(schema.Bool()),
	"center":   schema.Optional(schema.Slice(schema.Float())),
	"image":    schema.Optional(schema.String()),
	"text":     schema.Optional(schema.String()),
	"simplify": schema.Optional(schema.Float()),
}

// Load reads and parses a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}
	j, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	j.BaseDir = filepath.Dir(path)
	if j.Name == "" {
		j.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return j, nil
}

// Parse decodes and validates a job document.
func Parse(data []byte, format Format) (*Job, error) {
	raw := map[string]any{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse job json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse job yaml: %w", err)
		}
	}
	return FromMap(raw)
}

// FromMap validates and decodes an already parsed document.
func FromMap(raw map[string]any) (*Job, error) {
	var c schema.Checker
	c.Merge("job", schema.Validate(documentSchema, raw))
	if err := c.Err(); err != nil {
		return nil, err
	}
	for _, k := range schema.Unknown(documentSchema, raw) {
		c.Assert(false, "job."+k, "unknown field", nil)
	}

	objects, _ := raw["objects"].([]any)
	for i, o := range objects {
		obj, ok := toStringMap(o)
		if !ok {
			continue
		}
		c.Merge(fmt.Sprintf("objects[%d]", i), schema.Validate(objectSchema, obj))
		for _, k := range schema.Unknown(objectSchema, obj) {
			c.Assert(false, fmt.Sprintf("objects[%d].%s", i, k), "unknown field", nil)
		}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	j := &Job{Gcode: compiler.DefaultParams("")}
	if id, ok := raw["id"].(string); ok {
		j.ID = id
	}
	if name, ok := raw["name"].(string); ok {
		j.Name = name
	}
	if err := Decode(raw["gcode"], &j.Gcode); err != nil {
		return nil, fmt.Errorf("gcode: %w", err)
	}
	if err := Decode(raw["objects"], &j.Objects); err != nil {
		return nil, fmt.Errorf("objects: %w", err)
	}
	for i := range j.Objects {
		j.Objects[i].Type = strings.ToLower(j.Objects[i].Type)
	}
	if j.Name == "" {
		j.Name = j.Gcode.Name()
	}
	return j, nil
}

// toStringMap accepts the map shapes produced by the YAML and JSON decoders.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/laserpath"
)

// validator is implemented by every parameter struct.
type validator interface {
	Validate() error
}

func decodeParams(raw map[string]any, out validator) error {
	if err := Decode(raw, out); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return out.Validate()
}

// paths builds the laser paths of an object.
func (j *Job) paths(obj Object) ([]compiler.Path, error) {
	var paths []compiler.Path
	switch obj.Type {
	case TypeWaveguide:
		wgs, err := waveguides(obj)
		if err != nil {
			return nil, err
		}
		for _, wg := range wgs {
			paths = append(paths, simplified(wg.Path, obj.Simplify))
		}

	case TypeMarker:
		p := laserpath.DefaultMarkerParams()
		if err := decodeParams(obj.Params, &p); err != nil {
			return nil, err
		}
		center, err := vec(obj.Center)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		m := laserpath.NewMarker(p).Cross(center)
		if err := m.Err(); err != nil {
			return nil, err
		}
		paths = append(paths, m)

	case TypeRaster:
		p := laserpath.DefaultRasterParams()
		if err := decodeParams(obj.Params, &p); err != nil {
			return nil, err
		}
		if obj.Image == "" {
			return nil, errors.New("raster requires an image")
		}
		f, err := j.open(obj.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()
		img, err := laserpath.DecodeImage(f)
		if err != nil {
			return nil, err
		}
		r, err := laserpath.NewRasterImage(img, p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, simplified(r.Path, obj.Simplify))

	case TypeTrench:
		p := laserpath.DefaultTrenchParams()
		if err := decodeParams(obj.Params, &p); err != nil {
			return nil, err
		}
		tc, err := laserpath.NewTrenchColumn(p)
		if err != nil {
			return nil, err
		}
		for _, tp := range tc.Paths() {
			paths = append(paths, tp)
		}

	case TypeLabel:
		p := laserpath.DefaultLabelParams()
		if err := decodeParams(obj.Params, &p); err != nil {
			return nil, err
		}
		origin, err := vec(obj.Center)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		l, err := laserpath.NewLabel(obj.Text, origin, p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, simplified(l.Path, obj.Simplify))

	default:
		return nil, fmt.Errorf("unknown object type %q", obj.Type)
	}
	return paths, nil
}

func simplified(p *laserpath.Path, tol float64) *laserpath.Path {
	if tol > 0 {
		p.Simplify(tol)
	}
	return p
}

// waveguides builds Count copies of the waveguide described by the ops.
func waveguides(obj Object) ([]*laserpath.Waveguide, error) {
	p := laserpath.DefaultWaveguideParams()
	if err := decodeParams(obj.Params, &p); err != nil {
		return nil, err
	}
	// The writing depth is the starting z unless z_init is given.
	if !hasKey(obj.Params, "z_init") {
		p.ZInit = p.Depth
	}
	if len(obj.Ops) == 0 {
		return nil, errors.New("waveguide has no ops")
	}
	ops := make([]op, len(obj.Ops))
	for i, raw := range obj.Ops {
		if err := Decode(raw, &ops[i]); err != nil {
			return nil, fmt.Errorf("ops[%d]: %w", i, err)
		}
	}

	count := obj.Count
	if count < 1 {
		count = 1
	}
	out := make([]*laserpath.Waveguide, 0, count)
	for i := 0; i < count; i++ {
		wp := p
		wp.YInit += float64(i) * obj.Pitch
		sign := 1.0
		if obj.Mirror && i%2 == 1 {
			sign = -1
		}
		wg := laserpath.NewWaveguide(wp)
		for k, o := range ops {
			if err := o.apply(wg, sign); err != nil {
				return nil, fmt.Errorf("ops[%d] (%s): %w", k, o.Op, err)
			}
		}
		if err := wg.Err(); err != nil {
			return nil, err
		}
		out = append(out, wg)
	}
	return out, nil
}

func hasKey(raw map[string]any, key string) bool {
	for k := range raw {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// op is a single waveguide builder call.
type op struct {
	Op      string    `mapstructure:"op"`
	At      []float64 `mapstructure:"at"`
	D       []float64 `mapstructure:"d"`
	X       *float64  `mapstructure:"x"`
	Y       *float64  `mapstructure:"y"`
	Z       *float64  `mapstructure:"z"`
	DX      *float64  `mapstructure:"dx"`
	DY      *float64  `mapstructure:"dy"`
	DZ      float64   `mapstructure:"dz"`
	Profile string    `mapstructure:"profile"`
	Speed   float64   `mapstructure:"speed"`
	// Arc angles are in degrees.
	From   float64 `mapstructure:"from"`
	To     float64 `mapstructure:"to"`
	Radius float64 `mapstructure:"radius"`
}

func (o op) apply(wg *laserpath.Waveguide, sign float64) error {
	profile, err := parseProfile(o.Profile)
	if err != nil {
		return err
	}
	dy := wg.Params().DyBend()
	if o.DY != nil {
		dy = *o.DY
	}
	dy *= sign

	switch strings.ToLower(o.Op) {
	case "start":
		if o.At == nil {
			wg.Start()
			return nil
		}
		at, err := vec(o.At)
		if err != nil {
			return err
		}
		wg.StartAt(at)
	case "linear":
		if o.D != nil {
			d, err := vec(o.D)
			if err != nil {
				return err
			}
			wg.Linear(geometry.V(d.X, sign*d.Y, d.Z), o.Speed)
			return nil
		}
		wg.LinearTo(o.X, o.Y, o.Z, o.Speed)
	case "bend":
		wg.Bend(dy, o.DZ, profile, o.Speed)
	case "coupler":
		wg.Coupler(dy, profile, o.Speed)
	case "mzi":
		wg.MZI(dy, profile, o.Speed)
	case "arc":
		radius := o.Radius
		if radius == 0 {
			radius = wg.Params().Radius
		}
		wg.Arc(sign*geometry.Radians(o.From), sign*geometry.Radians(o.To), radius, o.Speed)
	case "spline":
		wg.Spline(o.DX, dy, o.DZ, o.Speed)
	case "end":
		wg.End()
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	return nil
}

func parseProfile(name string) (geometry.Profile, error) {
	switch strings.ToLower(name) {
	case "", "sin":
		return geometry.Sin, nil
	case "even":
		return geometry.Even, nil
	case "linear":
		return geometry.Linear, nil
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
}

// vec reads up to three coordinates, missing ones are zero.
func vec(v []float64) (geometry.Vec3, error) {
	if len(v) > 3 {
		return geometry.Vec3{}, fmt.Errorf("expected at most 3 coordinates, got %d", len(v))
	}
	var c [3]float64
	copy(c[:], v)
	return geometry.V(c[0], c[1], c[2]), nil
}

package compiler

import (
	"fmt"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
)

// Path is a waypoint sequence fabricated NumScan times.
type Path interface {
	Points() []domain.Waypoint
	NumScan() int
}

// Transform maps a waypoint from sample coordinates to stage coordinates.
func (c *Compiler) Transform(w domain.Waypoint) geometry.Vec3 {
	v := c.transform.Apply(geometry.V(w.X-c.params.NewOrigin[0], w.Y-c.params.NewOrigin[1], w.Z))
	if c.params.FlipX {
		v.X = -v.X
	}
	if c.params.FlipY {
		v.Y = -v.Y
	}
	if c.warp != nil {
		v.Z += c.warp.At(v.X, v.Y)
	}
	return v
}

// PointToInstruction transforms the waypoints and emits the corresponding
// movements, opening and closing the shutter following their S coordinate.
// It returns the transformed waypoints.
func (c *Compiler) PointToInstruction(points []domain.Waypoint) ([]domain.Waypoint, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, domain.ErrEmptyPath
	}

	out := make([]domain.Waypoint, 0, len(points))
	for i, p := range points {
		v := c.Transform(p)
		f := p.F
		args, err := c.formatArgs(&v.X, &v.Y, &v.Z, &f)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}

		switch {
		case p.S == domain.ShutterClosed && !c.shutterOn:
			c.emit(fmt.Sprintf("LINEAR %s\n", args))
			c.track(Target{X: &v.X, Y: &v.Y, Z: &v.Z}, f)
			if err := c.Dwell(c.params.LongPause); err != nil {
				return nil, err
			}
		case p.S == domain.ShutterClosed && c.shutterOn:
			if err := c.Shutter(domain.ShutterClosed); err != nil {
				return nil, err
			}
			if err := c.Dwell(c.params.ShortPause); err != nil {
				return nil, err
			}
		case p.S == domain.ShutterOpen && !c.shutterOn:
			if err := c.Shutter(domain.ShutterOpen); err != nil {
				return nil, err
			}
			c.emit(fmt.Sprintf("LINEAR %s\n", args))
			c.track(Target{X: &v.X, Y: &v.Y, Z: &v.Z}, f)
		case p.S == domain.ShutterOpen:
			c.emit(fmt.Sprintf("LINEAR %s\n", args))
			c.track(Target{X: &v.X, Y: &v.Y, Z: &v.Z}, f)
		default:
			return nil, fmt.Errorf("point %d: %w: %d", i, domain.ErrInvalidState, p.S)
		}
		out = append(out, domain.Waypoint{X: v.X, Y: v.Y, Z: v.Z, F: f, S: p.S})
	}
	return out, nil
}

// WritePath emits a path, wrapped in a REPEAT block when it has more than one scan.
func (c *Compiler) WritePath(p Path) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	n := p.NumScan()
	if n > 1 {
		if err := c.Repeat(n); err != nil {
			return err
		}
	}
	if _, err := c.PointToInstruction(p.Points()); err != nil {
		return err
	}
	if n > 1 {
		c.EndRepeat()
	}
	return nil
}

// track updates the known stage position after a LINEAR move at speed mm/s.
// Unset axes keep their previous value. The position becomes known once all
// three axes have been set.
func (c *Compiler) track(t Target, speed float64) {
	c.moves++
	next := c.pos
	if t.X != nil {
		next.X = *t.X
	}
	if t.Y != nil {
		next.Y = *t.Y
	}
	if t.Z != nil {
		next.Z = *t.Z
	}
	if c.hasPos {
		d := next.Sub(c.pos).Norm()
		f := c.top()
		f.length += d
		f.travel += d / speed
	}
	c.pos = next
	c.hasPos = c.hasPos || (t.X != nil && t.Y != nil && t.Z != nil)
}

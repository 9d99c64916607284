package laserpath

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	// Supported raster formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// RasterParams describes the conversion of an image to a raster path.
type RasterParams struct {
	Params `mapstructure:",squash" yaml:",inline"`

	// PxToMM is the size of a pixel in mm.
	PxToMM float64 `mapstructure:"px_to_mm" json:"px_to_mm" yaml:"px_to_mm"`
	// Invert writes the light pixels instead of the dark ones.
	Invert bool `mapstructure:"invert" json:"invert" yaml:"invert"`
}

// DefaultRasterParams returns 10 um pixels.
func DefaultRasterParams() RasterParams {
	return RasterParams{Params: DefaultParams(), PxToMM: 0.01}
}

// Validate reports every invalid field.
func (p RasterParams) Validate() error {
	var c schema.Checker
	c.Merge("params", p.Params.Validate())
	c.Positive("px_to_mm", p.PxToMM)
	return c.Err()
}

// DecodeImage decodes a PNG, JPEG, GIF, BMP or TIFF image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// RasterImage is a laser path scanning an image row by row.
type RasterImage struct {
	*Path
	rp   RasterParams
	size image.Point
}

// NewRasterImage converts the image to a raster path. Pixels are thresholded
// at half luminance and rows are scanned along x. The shutter opens at the
// left edge of every written run and closes at its right edge. Travel with
// the shutter closed runs at twice the writing speed.
func NewRasterImage(img image.Image, p RasterParams) (*RasterImage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("raster image is empty")
	}

	r := &RasterImage{Path: NewPath(p.Params), rp: p, size: b.Size()}
	px, z := p.PxToMM, p.ZInit
	for row := 0; row < b.Dy(); row++ {
		y := float64(row) * px
		r.closedTo(geometry.V(-px, y-px, z), p.SpeedClosed)
		r.Add(domain.Waypoint{X: -px, Y: y, Z: z, F: p.SpeedPos, S: domain.ShutterClosed})

		writing := false
		for col := 0; col <= b.Dx(); col++ {
			on := col < b.Dx() && r.written(img.At(b.Min.X+col, b.Min.Y+row))
			x := float64(col) * px
			switch {
			case on && !writing:
				r.Add(domain.Waypoint{X: x, Y: y, Z: z, F: 2 * p.Speed, S: domain.ShutterClosed})
				writing = true
			case !on && writing:
				r.Add(domain.Waypoint{X: x, Y: y, Z: z, F: p.Speed, S: domain.ShutterOpen})
				r.close()
				writing = false
			}
		}
	}
	return r, nil
}

// PathSize returns the size of the written area in mm.
func (r *RasterImage) PathSize() (float64, float64) {
	return float64(r.size.X) * r.rp.PxToMM, float64(r.size.Y) * r.rp.PxToMM
}

func (r *RasterImage) written(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	_, _, _, a := c.RGBA()
	dark := a > 0 && g.Y < 128
	return dark != r.rp.Invert
}

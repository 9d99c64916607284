package laserpath

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
)

func TestParams_Derived(t *testing.T) {
	p := DefaultParams()
	p.Speed = 20
	p.SampleSize = [2]float64{25, 25}

	assert.InDelta(t, 1.2, p.LVelo(), 1e-12)
	assert.InDelta(t, 20.0/1200, p.DL(), 1e-12)
	assert.Equal(t, 27.0, p.XEnd())
	assert.Equal(t, geometry.V(-2, 0, 0), p.InitPoint())
	assert.NoError(t, p.Validate())

	p.Scan = 0
	assert.Error(t, p.Validate())
}

func TestPath(t *testing.T) {
	p := NewPath(Params{Scan: 3})
	_, ok := p.LastPoint()
	assert.False(t, ok)

	p.Add(
		domain.Waypoint{X: 0, F: 1},
		domain.Waypoint{X: 3, Y: 4, F: 5, S: domain.ShutterOpen},
	)
	last, ok := p.LastPoint()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.X)
	assert.Equal(t, 5.0, p.Length())
	assert.Equal(t, 3.0, p.FabricationTime())
	assert.Equal(t, 3, p.NumScan())

	pts := p.Points()
	pts[0].X = 42
	assert.Equal(t, 0.0, p.Points()[0].X)
}

func TestWaveguide_Linear(t *testing.T) {
	wp := DefaultWaveguideParams()
	wp.Speed = 20
	wg := NewWaveguide(wp)
	wg.Start().
		Linear(geometry.V(5, 0, 0), 0).
		LinearTo(nil, ptr(1), nil, 10).
		End()
	require.NoError(t, wg.Err())

	pts := wg.Points()
	require.Len(t, pts, 6)
	assert.Equal(t, domain.Waypoint{X: -2, Z: 0.035, F: 0.5}, pts[0])
	assert.Equal(t, domain.ShutterOpen, pts[1].S)
	assert.Equal(t, domain.Waypoint{X: 3, Z: 0.035, F: 20, S: domain.ShutterOpen}, pts[2])
	assert.Equal(t, domain.Waypoint{X: 3, Y: 1, Z: 0.035, F: 10, S: domain.ShutterOpen}, pts[3])
	assert.Equal(t, domain.ShutterClosed, pts[4].S)
	assert.Equal(t, domain.Waypoint{X: -2, Z: 0.035, F: 5}, pts[5])
}

func TestWaveguide_Errors(t *testing.T) {
	wg := NewWaveguide(DefaultWaveguideParams())
	wg.Linear(geometry.V(1, 0, 0), 0).Start()
	assert.ErrorIs(t, wg.Err(), domain.ErrEmptyPath)
	assert.Zero(t, wg.Len(), "calls after an error are no-ops")

	wp := DefaultWaveguideParams()
	wp.Radius = 0.001
	wg = NewWaveguide(wp)
	wg.Start().Bend(1, 0, geometry.Sin, 0)
	assert.ErrorContains(t, wg.Err(), "too large")
}

func TestWaveguide_Bend(t *testing.T) {
	wp := DefaultWaveguideParams()
	wp.Speed = 20
	wp.IntDist = 0.007
	wg := NewWaveguide(wp)
	dy := wp.DyBend()
	wg.Start().Bend(dy, 0, geometry.Sin, 0)
	require.NoError(t, wg.Err())

	_, dx, err := geometry.SBendParameters(dy, wp.Radius)
	require.NoError(t, err)
	last, _ := wg.LastPoint()
	assert.InDelta(t, -2+dx, last.X, 1e-9)
	assert.InDelta(t, dy, last.Y, 1e-12)

	// Consecutive points are no closer than the controller command rate allows.
	pts := wg.Points()
	for i := 3; i < len(pts); i++ {
		assert.LessOrEqual(t, pts[i-1].Distance(pts[i]), 2*wp.DL())
	}
}

func TestWaveguide_CouplerAndMZI(t *testing.T) {
	wp := DefaultWaveguideParams()
	wp.IntDist = 0.007
	wp.IntLength = 0.5
	wp.ArmLength = 1
	dxMZI, err := wp.DxMZI()
	require.NoError(t, err)
	dxAcc, err := wp.DxAcc()
	require.NoError(t, err)

	wg := NewWaveguide(wp)
	wg.Start().Coupler(wp.DyBend(), geometry.Even, 0)
	require.NoError(t, wg.Err())
	last, _ := wg.LastPoint()
	assert.InDelta(t, -2+dxAcc, last.X, 1e-9)
	assert.InDelta(t, 0, last.Y, 1e-12)

	wg = NewWaveguide(wp)
	wg.Start().MZI(wp.DyBend(), geometry.Sin, 0)
	require.NoError(t, wg.Err())
	last, _ = wg.LastPoint()
	assert.InDelta(t, -2+dxMZI, last.X, 1e-9)
}

func TestWaveguide_ArcAndSpline(t *testing.T) {
	wg := NewWaveguide(DefaultWaveguideParams())
	wg.StartAt(geometry.V(1, 0, 0)).Arc(0, math.Pi/2, 1, 0)
	require.NoError(t, wg.Err())
	last, _ := wg.LastPoint()
	assert.InDelta(t, 0, last.X, 1e-9)
	assert.InDelta(t, 1, last.Y, 1e-9)

	wg = NewWaveguide(DefaultWaveguideParams())
	wg.StartAt(geometry.V(0, 0, 0)).Spline(ptr(2), 0.1, 0.01, 0)
	require.NoError(t, wg.Err())
	last, _ = wg.LastPoint()
	assert.True(t, geometry.V(last.X, last.Y, last.Z).AlmostEqual(geometry.V(2, 0.1, 0.01), 1e-9))
}

func TestMarker_Cross(t *testing.T) {
	m := NewMarker(DefaultMarkerParams())
	m.Cross(geometry.V(5, 5, 0))
	require.NoError(t, m.Err())

	var written float64
	pts := m.Points()
	for i := 1; i < len(pts); i++ {
		if pts[i].S == domain.ShutterOpen && pts[i-1].S == domain.ShutterOpen {
			written += pts[i-1].Distance(pts[i])
		}
	}
	assert.InDelta(t, 1.06, written, 1e-12)
	last, _ := m.LastPoint()
	assert.Equal(t, domain.ShutterClosed, last.S)

	m.Cross(geometry.V(0, 0, 0))
	assert.Error(t, m.Err())
}

func TestRasterImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	// Row 0: pixels 1 and 2 are dark. Row 1 is blank.
	img.SetGray(1, 0, color.Gray{Y: 0})
	img.SetGray(2, 0, color.Gray{Y: 0})

	p := DefaultRasterParams()
	p.PxToMM = 0.1
	r, err := NewRasterImage(img, p)
	require.NoError(t, err)

	w, h := r.PathSize()
	assert.InDelta(t, 0.4, w, 1e-12)
	assert.InDelta(t, 0.2, h, 1e-12)

	var open []domain.Waypoint
	for _, pt := range r.Points() {
		if pt.S == domain.ShutterOpen {
			open = append(open, pt)
		}
	}
	require.Len(t, open, 1)
	assert.InDelta(t, 0.3, open[0].X, 1e-12)
	assert.Equal(t, 0.0, open[0].Y)

	p.Invert = true
	r, err = NewRasterImage(img, p)
	require.NoError(t, err)
	count := 0
	for _, pt := range r.Points() {
		if pt.S == domain.ShutterOpen {
			count++
		}
	}
	assert.Equal(t, 3, count, "two runs on row 0 and one on row 1")
}

func TestDecodeImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	got, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Bounds().Dx())

	buf.Reset()
	require.NoError(t, bmp.Encode(&buf, img))
	got, err = DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Bounds().Dy())

	_, err = DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestTrenchColumn(t *testing.T) {
	p := DefaultTrenchParams()
	p.XCenter, p.YMin, p.YMax = 5, 0, 1
	p.Bridges = []float64{0.5, 3}
	p.NBoxZ = 1

	tc, err := NewTrenchColumn(p)
	require.NoError(t, err)

	blocks := tc.Blocks()
	require.Len(t, blocks, 2)
	adj := p.AdjBridge()
	assert.InDelta(t, 0.5-adj, blocks[0].YMax, 1e-12)
	assert.InDelta(t, 0.5+adj, blocks[1].YMin, 1e-12)
	assert.Equal(t, 4.5, blocks[0].XMin)
	assert.Equal(t, 5.5, blocks[0].XMax)

	paths := tc.Paths()
	require.Len(t, paths, 2)
	for _, path := range paths {
		pts := path.Points()
		require.NotEmpty(t, pts)
		assert.Equal(t, domain.ShutterClosed, pts[len(pts)-1].S)
		for _, pt := range pts {
			assert.GreaterOrEqual(t, pt.X, 4.5-1e-12)
			assert.LessOrEqual(t, pt.X, 5.5+1e-12)
		}
	}
	assert.Greater(t, tc.FabricationTime(), 0.0)

	p.Bridges = nil
	p.YMax = p.YMin
	_, err = NewTrenchColumn(p)
	assert.Error(t, err)
}

func TestRect(t *testing.T) {
	r := Rect{XMin: 0, YMin: 0, XMax: 2, YMax: 1}
	assert.Equal(t, 6.0, r.Perimeter())
	assert.False(t, r.Inset(0.4).Empty())
	assert.True(t, r.Inset(0.5).Empty())
}

func TestLabel(t *testing.T) {
	p := DefaultLabelParams()
	l, err := NewLabel("IL", geometry.V(1, 2, 0), p)
	require.NoError(t, err)
	require.NoError(t, l.Err())

	assert.Greater(t, l.Width(), 0.0)
	assert.Less(t, l.Width(), 2*p.Height)

	pts := l.Points()
	require.NotEmpty(t, pts)
	for _, pt := range pts {
		assert.GreaterOrEqual(t, pt.X, 1.0-1e-9)
		assert.LessOrEqual(t, pt.X, 1+l.Width()+1e-9)
		// Glyphs sit on the baseline and stay below one em.
		assert.GreaterOrEqual(t, pt.Y, 2-0.3*p.Height)
		assert.LessOrEqual(t, pt.Y, 2+p.Height)
	}
	assert.Equal(t, domain.ShutterClosed, pts[len(pts)-1].S)

	_, err = NewLabel("", geometry.V(0, 0, 0), p)
	assert.Error(t, err)
}

func ptr(v float64) *float64 { return &v }

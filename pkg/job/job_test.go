package job

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/schema"
)

func TestLoad(t *testing.T) {
	j, err := Load(filepath.Join("testdata", "couplers.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "couplers", j.Name)
	assert.Equal(t, "testdata", j.BaseDir)
	assert.Equal(t, "couplers.pgm", j.Gcode.Filename)
	assert.Equal(t, domain.Laser("pharos"), j.Gcode.Laser)
	assert.Equal(t, 1.0, j.Gcode.RotationAngle)
	assert.Equal(t, 0.5, j.Gcode.LongPause, "defaults survive partial gcode sections")
	require.Len(t, j.Objects, 2)
	assert.Equal(t, TypeWaveguide, j.Objects[0].Type)
	assert.Equal(t, 2, j.Objects[0].Count)
	assert.Len(t, j.Objects[0].Ops, 5)
	assert.Equal(t, []float64{10, 0.5}, j.Objects[1].Center)
}

func TestBuild(t *testing.T) {
	j, err := Load(filepath.Join("testdata", "couplers.yaml"))
	require.NoError(t, err)

	prog, err := Build(context.Background(), j)
	require.NoError(t, err)

	assert.NotEmpty(t, prog.ID)
	assert.Equal(t, "couplers", prog.Name)
	assert.Equal(t, "couplers.pgm", prog.Filename)
	assert.True(t, strings.HasPrefix(prog.Text, "; CAPABLE"))
	assert.Equal(t, 2, strings.Count(prog.Text, "REPEAT 6\n"))
	assert.Contains(t, prog.Text, "; couplers (1/2)\n")
	assert.Contains(t, prog.Text, "; marker 1\n")
	assert.Greater(t, prog.Stats.EstimatedTime, 0.0)
	assert.Greater(t, prog.Stats.PathLength, 2*6*8.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, j)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_JSON(t *testing.T) {
	doc := `{
		"id": "job-1",
		"gcode": {"filename": "wg", "output_digits": 3, "speed_pos": "10"},
		"objects": [
			{"type": "Waveguide", "params": {"speed": 2}, "ops": [
				{"op": "start", "at": [0, 0, 0.03]},
				{"op": "linear", "x": 1},
				{"op": "end"}
			]}
		]
	}`
	j, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "wg", j.Name)
	assert.Equal(t, 3, j.Gcode.OutputDigits)
	assert.Equal(t, 10.0, j.Gcode.SpeedPos)
	assert.Equal(t, TypeWaveguide, j.Objects[0].Type)

	prog, err := Build(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, "job-1", prog.ID)
	assert.Contains(t, prog.Text, "LINEAR X1.000 Y0.000 Z0.027 F2.000\n")
}

func TestParse_ValidationErrors(t *testing.T) {
	doc := `
gcode: {filename: x}
colour: red
objects:
  - type: spiral
  - type: marker
    extra: 1
`
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)

	var keys []string
	for _, e := range schema.ValidationErrors(err) {
		var ve *schema.ValidationError
		require.True(t, errors.As(e, &ve))
		keys = append(keys, ve.Key)
	}
	assert.ElementsMatch(t, []string{"job.colour", "objects[0].type", "objects[1].extra"}, keys)

	_, err = Parse([]byte("objects: []"), FormatYAML)
	assert.Error(t, err, "gcode is required")

	_, err = Parse([]byte("{"), FormatJSON)
	assert.Error(t, err)
}

func TestBuild_ObjectErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown param",
			doc:  "gcode: {filename: x}\nobjects: [{type: marker, params: {colour: red}}]",
			want: "colour",
		},
		{
			name: "invalid param",
			doc:  "gcode: {filename: x}\nobjects: [{type: marker, params: {lx: -1}}]",
			want: "lx",
		},
		{
			name: "unknown op",
			doc:  "gcode: {filename: x}\nobjects: [{type: waveguide, ops: [{op: start}, {op: jump}]}]",
			want: "unknown op",
		},
		{
			name: "unknown profile",
			doc:  "gcode: {filename: x}\nobjects: [{type: waveguide, ops: [{op: start}, {op: bend, profile: zigzag}]}]",
			want: "unknown profile",
		},
		{
			name: "no ops",
			doc:  "gcode: {filename: x}\nobjects: [{type: waveguide}]",
			want: "no ops",
		},
		{
			name: "raster without image",
			doc:  "gcode: {filename: x}\nobjects: [{type: raster}]",
			want: "requires an image",
		},
		{
			name: "invalid gcode",
			doc:  "gcode: {filename: x, laser: ruby}\nobjects: []",
			want: "PHAROS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := Parse([]byte(tt.doc), FormatYAML)
			require.NoError(t, err)
			_, err = Build(context.Background(), j)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuild_AllObjectTypes(t *testing.T) {
	dir := t.TempDir()

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(1, 1, color.Gray{})
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	surface := "0 0 0\n10 0 0.01\n0 10 0\n10 10 0.01\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mesh.txt"), []byte(surface), 0644))

	doc := `
gcode:
  filename: all
  antiwarp: mesh.txt
  home: true
objects:
  - type: raster
    image: logo.png
    params: {px_to_mm: 0.05}
  - type: trench
    params: {x_center: 5, y_min: 0, y_max: 0.2, nboxz: 1, safe_inner_turns: 1, delta_floor: 0.01, deltaz: 0.01}
  - type: label
    text: A1
    center: [1, 1, 0]
    simplify: 0.0001
`
	path := filepath.Join(dir, "all.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	j, err := Load(path)
	require.NoError(t, err)
	prog, err := Build(context.Background(), j)
	require.NoError(t, err)

	assert.Contains(t, prog.Text, "; raster 0\n")
	assert.Contains(t, prog.Text, "; trench 1\n")
	assert.Contains(t, prog.Text, "; label 2\n")
	assert.Contains(t, prog.Text, "; HOMING\n")

	j.Gcode.Antiwarp = "missing.txt"
	_, err = Build(context.Background(), j)
	assert.ErrorContains(t, err, "antiwarp")
}

func TestBuild_WaveguideDepth(t *testing.T) {
	build := func(params string) string {
		t.Helper()
		doc := "gcode: {filename: wg}\nobjects:\n  - type: waveguide\n    params: " + params +
			"\n    ops: [{op: start}, {op: linear, d: [1, 0, 0]}, {op: end}]\n"
		j, err := Parse([]byte(doc), FormatYAML)
		require.NoError(t, err)
		prog, err := Build(context.Background(), j)
		require.NoError(t, err)
		return prog.Text
	}

	// z is scaled by 1.33/1.5 for the default indices.
	assert.Contains(t, build("{depth: 0.100}"), "Z0.088667")
	assert.Contains(t, build("{}"), "Z0.031033")

	text := build("{depth: 0.100, z_init: 0.050}")
	assert.Contains(t, text, "Z0.044333")
	assert.NotContains(t, text, "Z0.088667")
}

func TestBuild_ConfinedPaths(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "jobs")
	require.NoError(t, os.Mkdir(base, 0o755))
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("hunter2 sk_live_abc 42\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "mesh.txt"), []byte("0 0 0\n0 1 0\n1 0 0\n1 1 0\n"), 0o644))
	require.NoError(t, os.Symlink(secret, filepath.Join(base, "link.txt")))

	for _, path := range []string{"/etc/passwd", secret, "../secret.txt", "link.txt"} {
		j, err := Parse([]byte("gcode: {filename: x}\nobjects: []"), FormatYAML)
		require.NoError(t, err)
		j.BaseDir, j.Confined = base, true
		j.Gcode.Antiwarp = path

		_, err = Build(context.Background(), j)
		require.Error(t, err, path)
		assert.NotContains(t, err.Error(), "hunter2", path)
		assert.NotContains(t, err.Error(), "root:", path)
	}

	j, err := Parse([]byte("gcode: {filename: x, antiwarp: mesh.txt}\nobjects: []"), FormatYAML)
	require.NoError(t, err)
	j.BaseDir, j.Confined = base, true
	_, err = Build(context.Background(), j)
	require.NoError(t, err)

	// Unconfined jobs from local files may name any path.
	j.Confined = false
	j.Gcode.Antiwarp = "../secret.txt"
	_, err = Build(context.Background(), j)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not a number")
	assert.NotContains(t, err.Error(), "hunter2")
}

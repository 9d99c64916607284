package loam

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"

	"github.com/aretw0/femto/internal/testutils"
	"github.com/aretw0/femto/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t, files)
	return New(loam.NewTypedRepository[RecipeMetadata](repo), dir)
}

func TestLoader_Contract(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"straight.md": testutils.Recipe("straight"),
		"marker.json": `{"gcode": {"filename": "marker"}, "objects": [{"type": "marker", "center": [1, 1]}]}`,
	})
	ports.RunJobLoaderContract(t, loader, []string{"marker", "straight"})
}

func TestLoader_GetJob_DecodesStrictNumbers(t *testing.T) {
	loader := newLoader(t, map[string]string{"straight.md": testutils.Recipe("straight")})

	j, err := loader.GetJob(context.Background(), "straight")
	require.NoError(t, err)
	assert.Equal(t, "straight", j.Name)
	assert.Equal(t, 5.0, j.Gcode.SpeedPos)
	require.Len(t, j.Objects, 1)
	assert.Equal(t, "waveguide", j.Objects[0].Type)
	assert.Equal(t, loader.BaseDir, j.BaseDir)
}

func TestLoader_GetJob_Nested(t *testing.T) {
	loader := newLoader(t, map[string]string{"chips/a.md": testutils.Recipe("a")})

	ids, err := loader.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chips/a"}, ids)

	j, err := loader.GetJob(context.Background(), "chips/a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(loader.BaseDir, "chips"), j.BaseDir)
}

func TestLoader_GetJob_Invalid(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"bad.md": "---\nname: bad\ngcode: {filename: bad}\nobjects: [{type: spiral}]\n---\n",
	})

	_, err := loader.GetJob(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe bad")
	assert.Contains(t, err.Error(), "objects[0].type")
}

func TestLoader_ListJobs_DetectsCollisions(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"foo.md":   "---\nid: foo\ngcode: {filename: foo}\nobjects: []\n---\n",
		"foo.json": `{"id": "foo", "gcode": {"filename": "foo"}, "objects": []}`,
	})

	_, err := loader.ListJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

package femto_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/internal/testutils"
	"github.com/aretw0/femto/pkg/adapters/file"
	"github.com/aretw0/femto/pkg/adapters/memory"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chip = `
gcode:
  filename: chip
objects:
  - type: waveguide
    name: wg
    params: {scan: 3, speed: 20}
    ops:
      - op: start
        at: [-1, 0, 0.035]
      - op: linear
        d: [12, 0, 0]
      - op: end
`

func TestEngine_CompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chip), 0644))

	eng, err := femto.New("")
	require.NoError(t, err)

	prog, err := eng.CompileFile(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, prog.ID)
	assert.Equal(t, "chip", prog.Name)
	assert.Equal(t, "chip.pgm", prog.Filename)
	assert.Contains(t, prog.Text, "; CAPABLE")
	assert.Contains(t, prog.Text, "; wg\n")
	assert.Contains(t, prog.Text, "REPEAT 3\n")
	assert.Greater(t, prog.Stats.EstimatedTime, 0.0)
}

func TestEngine_CompileJob(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"chip": chip})
	eng, err := femto.New("", femto.WithLoader(loader))
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := eng.Jobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chip"}, ids)

	prog, err := eng.CompileJob(ctx, "chip")
	require.NoError(t, err)
	assert.Equal(t, "chip", prog.ID)

	_, err = eng.CompileJob(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestEngine_NoLoader(t *testing.T) {
	eng, err := femto.New("")
	require.NoError(t, err)

	_, err = eng.CompileJob(context.Background(), "chip")
	assert.ErrorIs(t, err, femto.ErrNoLoader)
	_, err = eng.Jobs(context.Background())
	assert.ErrorIs(t, err, femto.ErrNoLoader)
	_, err = eng.Watch(context.Background())
	assert.Error(t, err)
}

func TestEngine_LoamLibrary(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"straight.md": testutils.Recipe("straight")})

	eng, err := femto.New(dir)
	require.NoError(t, err)

	prog, err := eng.CompileJob(context.Background(), "straight")
	require.NoError(t, err)
	assert.Equal(t, "straight", prog.ID)
	assert.Contains(t, prog.Text, "REPEAT 2\n")
}

func TestEngine_MeshScan(t *testing.T) {
	eng, err := femto.New("")
	require.NoError(t, err)

	prog, err := eng.MeshScan(context.Background(), compiler.DefaultParams("mesh"), template.DefaultMeshParams())
	require.NoError(t, err)
	assert.NotEmpty(t, prog.ID)
	assert.Contains(t, prog.Text, "FILEOPEN \"mesh.txt\"")

	bad := template.DefaultMeshParams()
	bad.NX = 1
	_, err = eng.MeshScan(context.Background(), compiler.DefaultParams("mesh"), bad)
	assert.ErrorContains(t, err, "mesh")

	_, err = eng.MeshScan(context.Background(), compiler.DefaultParams(""), template.DefaultMeshParams())
	assert.ErrorContains(t, err, "filename")
}

func TestEngine_Hooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []domain.EventType
		last   domain.CompileEvent
	)
	record := func(t domain.EventType) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, t)
	}
	hooks := domain.LifecycleHooks{
		OnCompileStart: func(_ context.Context, e *domain.CompileEvent) { record(e.Type) },
		OnCompileEnd: func(_ context.Context, e *domain.CompileEvent) {
			record(e.Type)
			last = *e
		},
		OnProgramSaved: func(_ context.Context, e *domain.ProgramEvent) { record(e.Type) },
	}

	store := file.New(t.TempDir())
	eng, err := femto.New("",
		femto.WithLoader(memory.NewLoader(map[string]string{"chip": chip})),
		femto.WithStore(store),
		femto.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)
	ctx := context.Background()

	prog, err := eng.CompileJob(ctx, "chip")
	require.NoError(t, err)
	require.NoError(t, eng.Save(ctx, prog))

	assert.Equal(t, []domain.EventType{domain.EventCompileStart, domain.EventCompileEnd, domain.EventProgramSaved}, events)
	assert.Equal(t, "job", last.Kind)
	assert.Equal(t, "chip", last.JobID)
	assert.Equal(t, 1, last.Objects)
	assert.NoError(t, last.Err)
	assert.Equal(t, prog.Stats, last.Stats)

	loaded, err := eng.Load(ctx, "chip")
	require.NoError(t, err)
	assert.Equal(t, prog.Text, loaded.Text)

	ids, err := eng.Programs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chip"}, ids)

	require.NoError(t, eng.Delete(ctx, "chip"))
	_, err = eng.Load(ctx, "chip")
	assert.ErrorIs(t, err, domain.ErrProgramNotFound)
}

func TestEngine_CompileError_ReachesHooks(t *testing.T) {
	var got error
	eng, err := femto.New("",
		femto.WithLoader(memory.NewLoader(map[string]string{
			"bad": "gcode: {filename: bad, laser: ruby}\nobjects: []\n",
		})),
		femto.WithLifecycleHooks(domain.LifecycleHooks{
			OnCompileEnd: func(_ context.Context, e *domain.CompileEvent) { got = e.Err },
		}),
	)
	require.NoError(t, err)

	_, err = eng.CompileJob(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, err, got)
}

func TestEngine_Compile_WaitsForLock(t *testing.T) {
	locker := memory.NewLocker()
	eng, err := femto.New("",
		femto.WithLoader(memory.NewLoader(map[string]string{"chip": chip})),
		femto.WithLocker(locker, time.Second),
	)
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "job:chip", time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = eng.CompileJob(ctx, "chip")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestEngine_Save_RequiresID(t *testing.T) {
	eng, err := femto.New("")
	require.NoError(t, err)
	assert.Error(t, eng.Save(context.Background(), &domain.Program{}))
}

func TestPrinter(t *testing.T) {
	prog := &domain.Program{
		ID:       "p1",
		Name:     "chip",
		Filename: "chip.pgm",
		Stats:    domain.Stats{Instructions: 42, EstimatedTime: 61.4},
	}

	var buf bytes.Buffer
	require.NoError(t, (&femto.Printer{Output: &buf, Headless: true}).Print(prog))
	assert.Equal(t, "chip.pgm\t42 instructions\t1m1s\n", buf.String())

	buf.Reset()
	upper := func(s string) (string, error) { return "rendered:" + s, nil }
	require.NoError(t, (&femto.Printer{Output: &buf, Renderer: upper}).Print(prog))
	assert.Contains(t, buf.String(), "rendered:# chip")
	assert.Contains(t, buf.String(), "| instructions | 42 |")

	assert.Error(t, (&femto.Printer{}).Print(prog))
}

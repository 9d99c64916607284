package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/adapters/memory"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const wgJSON = `{
  "id": "wg1",
  "gcode": {"filename": "wg1"},
  "objects": [{
    "type": "waveguide",
    "params": {"speed": 10},
    "ops": [
      {"op": "start", "at": [0, 0, 0.035]},
      {"op": "linear", "d": [5, 0, 0]},
      {"op": "end"}
    ]
  }]
}`

const chipYAML = `
gcode: {filename: chip}
objects:
  - type: marker
    center: [1, 1]
`

func newTestHandler(t *testing.T, opts ...femto.Option) http.Handler {
	t.Helper()
	opts = append([]femto.Option{femto.WithLoader(memory.NewLoader(map[string]string{"chip": chipYAML}))}, opts...)
	eng, err := femto.New("", opts...)
	require.NoError(t, err)
	h, err := NewHandler(eng)
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(h, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "femto-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(femto.Version), info["version"])

	w = do(h, "GET", "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestCompile(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, "POST", "/compile", wgJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prog := decode[domain.Program](t, w)
	assert.Equal(t, "wg1", prog.ID)
	assert.Equal(t, "wg1.pgm", prog.Filename)
	assert.Contains(t, prog.Text, "PSOCONTROL X ON")
	assert.Greater(t, prog.Stats.PathLength, 5.0)

	// Not stored without ?store=true.
	w = do(h, "GET", "/programs/wg1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompile_StoreAndPrograms(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, "POST", "/compile?store=true", wgJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(h, "GET", "/programs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"wg1"}, decode[[]string](t, w))

	w = do(h, "GET", "/programs/wg1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wg1", decode[domain.Program](t, w).Name)

	w = do(h, "GET", "/programs/wg1/pgm", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="wg1.pgm"`)
	assert.Contains(t, w.Body.String(), "LINEAR")

	w = do(h, "DELETE", "/programs/wg1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(h, "GET", "/programs/wg1/pgm", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompile_Rejections(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		detail string
	}{
		{
			name:   "missing objects",
			target: "/compile",
			body:   `{"gcode": {"filename": "x"}}`,
			status: http.StatusBadRequest,
			detail: "objects",
		},
		{
			name:   "unknown object type",
			target: "/compile",
			body:   `{"gcode": {"filename": "x"}, "objects": [{"type": "spiral"}]}`,
			status: http.StatusBadRequest,
			detail: "type",
		},
		{
			name:   "store is not a boolean",
			target: "/compile?store=maybe",
			body:   wgJSON,
			status: http.StatusBadRequest,
			detail: "store",
		},
		{
			name:   "invalid laser",
			target: "/compile",
			body:   `{"gcode": {"filename": "x", "laser": "ruby"}, "objects": []}`,
			status: http.StatusUnprocessableEntity,
			detail: "",
		},
		{
			name:   "unknown job field",
			target: "/compile",
			body:   `{"gcode": {"filename": "x"}, "objects": [], "colour": "red"}`,
			status: http.StatusUnprocessableEntity,
			detail: "job.colour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, "POST", tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode[ErrorResponse](t, w)
			assert.NotEmpty(t, resp.Error)
			if tt.detail != "" {
				assert.Contains(t, strings.Join(resp.Details, "\n"), tt.detail)
			}
		})
	}
}

func TestCompile_ConfinesJobPaths(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "jobs")
	require.NoError(t, os.Mkdir(base, 0o755))
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("hunter2 sk_live_abc 42\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "flat.txt"), []byte("0 0 0\n0 1 0\n1 0 0\n1 1 0\n"), 0o644))

	eng, err := femto.New("")
	require.NoError(t, err)
	h, err := NewHandler(eng, WithBaseDir(base))
	require.NoError(t, err)

	job := func(gcode, object string) string {
		return fmt.Sprintf(`{"gcode": {"filename": "x"%s}, "objects": [%s]}`, gcode, object)
	}
	tests := []struct {
		name string
		body string
	}{
		{"absolute antiwarp", job(`, "antiwarp": "/etc/passwd"`, "")},
		{"absolute secret", job(fmt.Sprintf(`, "antiwarp": %q`, secret), "")},
		{"relative escape", job(`, "antiwarp": "../secret.txt"`, "")},
		{"raster image escape", job("", `{"type": "raster", "image": "../secret.txt"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, "POST", "/compile", tt.body)
			assert.GreaterOrEqual(t, w.Code, 400, w.Body.String())
			assert.Less(t, w.Code, 500, w.Body.String())
			assert.NotContains(t, w.Body.String(), "hunter2")
			assert.NotContains(t, w.Body.String(), "sk_live")
			assert.NotContains(t, w.Body.String(), "root:")
		})
	}

	w := do(h, "POST", "/compile", job(`, "antiwarp": "flat.txt"`, ""))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestMeshScan(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, "POST", "/mesh", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prog := decode[domain.Program](t, w)
	assert.Equal(t, "mesh.pgm", prog.Filename)
	assert.Contains(t, prog.Text, "FILEOPEN")

	w = do(h, "POST", "/mesh", `{"mesh": {"nx": 1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = do(h, "POST", "/mesh", `{"mesh": {"colour": 1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestJobs(t *testing.T) {
	h := newTestHandler(t)

	w := do(h, "GET", "/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"chip"}, decode[[]string](t, w))

	w = do(h, "POST", "/jobs/chip/compile?store=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "chip", decode[domain.Program](t, w).ID)

	w = do(h, "GET", "/programs/chip", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, "POST", "/jobs/missing/compile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobs_NoLibrary(t *testing.T) {
	eng, err := femto.New("")
	require.NoError(t, err)
	h, err := NewHandler(eng)
	require.NoError(t, err)

	w := do(h, "GET", "/jobs", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = do(h, "GET", "/events", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng, err := femto.New("", femto.WithLifecycleHooks(metrics.Hooks(nil)))
	require.NoError(t, err)
	h, err := NewHandler(eng, WithMetrics(reg))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, do(h, "POST", "/compile", wgJSON).Code)

	w := do(h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `femto_compilations_total{kind="job",result="ok"} 1`)
}

// watchingEngine streams a fixed list of changed jobs.
type watchingEngine struct {
	*femto.Engine
	ids []string
}

func (e *watchingEngine) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, len(e.ids))
	for _, id := range e.ids {
		ch <- id
	}
	close(ch)
	return ch, nil
}

func TestSubscribeEvents(t *testing.T) {
	eng, err := femto.New("")
	require.NoError(t, err)
	h, err := NewHandler(&watchingEngine{Engine: eng, ids: []string{"chip", "chips/a"}})
	require.NoError(t, err)

	w := do(h, "GET", "/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: ping\ndata: connected\n\n")
	assert.Contains(t, body, "event: job\ndata: chip\n\n")
	assert.Contains(t, body, "event: job\ndata: chips/a\n\n")
}

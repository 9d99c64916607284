package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/adapters/memory"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chipYAML = `
gcode: {filename: chip}
objects:
  - type: waveguide
    params: {speed: 20}
    ops:
      - {op: start, at: [0, 0, 0.035]}
      - {op: linear, d: [10, 0, 0]}
      - {op: end}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := femto.New("", femto.WithLoader(memory.NewLoader(map[string]string{"chip": chipYAML})))
	require.NoError(t, err)
	return NewServer(eng)
}

func TestCompileTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleCompile(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"job": `{"id": "wg", "gcode": {"filename": "wg"}, "objects": []}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "wg", resp.ID)
	assert.Equal(t, "wg.pgm", resp.Filename)
	assert.False(t, resp.Stored)
	assert.Empty(t, resp.URI)

	_, err = s.handleCompile(ctx, mcp.CallToolRequest{}, map[string]interface{}{"job": "  "})
	assert.Error(t, err)

	_, err = s.handleCompile(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"job": `{"gcode": {"filename": "x"}, "objects": [{"type": "spiral"}]}`,
	})
	assert.Error(t, err)

	_, err = s.handleCompile(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"job": `{"gcode": {"filename": "x", "antiwarp": "/etc/passwd"}, "objects": []}`,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPathEscapes)
	assert.NotContains(t, err.Error(), "root:")
}

func TestCompileJobTool_StoreAndRead(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleCompileJob(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "chip", "store": true})
	require.NoError(t, err)
	assert.True(t, resp.Stored)
	assert.Equal(t, "femto://programs/chip", resp.URI)
	assert.Greater(t, resp.Stats.Instructions, 0)

	var req mcp.ReadResourceRequest
	req.Params.URI = resp.URI
	contents, err := s.readProgram(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "text/plain", text.MIMEType)
	assert.Contains(t, text.Text, "LINEAR")

	req.Params.URI = "femto://programs/missing"
	_, err = s.readProgram(ctx, req)
	assert.Error(t, err)

	_, err = s.handleCompileJob(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "missing"})
	assert.Error(t, err)
}

func TestMeshScanTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleMeshScan(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "mesh.pgm", resp.Filename)
	assert.NotEmpty(t, resp.ID)

	resp, err = s.handleMeshScan(ctx, mcp.CallToolRequest{}, map[string]interface{}{"filename": "surface"})
	require.NoError(t, err)
	assert.Equal(t, "surface.pgm", resp.Filename)

	_, err = s.handleMeshScan(ctx, mcp.CallToolRequest{}, map[string]interface{}{"mesh": `{"colour": 1}`})
	assert.Error(t, err)

	_, err = s.handleMeshScan(ctx, mcp.CallToolRequest{}, map[string]interface{}{"mesh": `not json`})
	assert.Error(t, err)
}

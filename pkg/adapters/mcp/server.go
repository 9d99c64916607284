package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/template"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const programURIPrefix = "femto://programs/"

// CompileResponse summarises a compiled program for tool callers.
type CompileResponse struct {
	ID       string       `json:"id" jsonschema_description:"Program ID"`
	Filename string       `json:"filename" jsonschema_description:"Name of the .pgm file"`
	Stats    domain.Stats `json:"stats" jsonschema_description:"Instruction counts and estimated fabrication time"`
	Stored   bool         `json:"stored" jsonschema_description:"Whether the program was saved to the store"`
	URI      string       `json:"uri,omitempty" jsonschema_description:"Resource URI of the stored program"`
}

// Engine defines the interface required by the MCP server to drive the compiler.
type Engine interface {
	Compile(ctx context.Context, j *job.Job) (*domain.Program, error)
	CompileJob(ctx context.Context, id string) (*domain.Program, error)
	MeshScan(ctx context.Context, gcode compiler.Params, p template.MeshParams) (*domain.Program, error)
	Jobs(ctx context.Context) ([]string, error)
	Save(ctx context.Context, p *domain.Program) error
	Load(ctx context.Context, id string) (*domain.Program, error)
	Programs(ctx context.Context) ([]string, error)
}

// Server wraps the femto Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("femto-mcp", strings.TrimSpace(femto.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: compile
	compileTool := mcp.NewTool("compile",
		mcp.WithDescription("Compile a job document (YAML or JSON) into a PGM program."),
		mcp.WithString("job", mcp.Required(), mcp.Description("Job document with gcode parameters and objects")),
		mcp.WithBoolean("store", mcp.Description("Save the program so it can be read as a resource")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(compileTool, mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: compile_job
	compileJobTool := mcp.NewTool("compile_job",
		mcp.WithDescription("Compile a job from the recipe library by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Job ID in the library")),
		mcp.WithBoolean("store", mcp.Description("Save the program so it can be read as a resource")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(compileJobTool, mcp.NewStructuredToolHandler(s.handleCompileJob))

	// TOOL: mesh_scan
	meshTool := mcp.NewTool("mesh_scan",
		mcp.WithDescription("Generate a surface mesh scan program."),
		mcp.WithString("filename", mcp.Description("Program filename (default: mesh)")),
		mcp.WithString("mesh", mcp.Description("JSON object with mesh parameters (optional)")),
		mcp.WithBoolean("store", mcp.Description("Save the program so it can be read as a resource")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(meshTool, mcp.NewStructuredToolHandler(s.handleMeshScan))

	// TOOL: list_jobs
	s.mcpServer.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List the job IDs of the recipe library."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Jobs(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list jobs failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: list_programs
	s.mcpServer.AddTool(mcp.NewTool("list_programs",
		mcp.WithDescription("List the IDs of stored programs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Programs(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list programs failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	doc, _ := args["job"].(string)
	if strings.TrimSpace(doc) == "" {
		return CompileResponse{}, errors.New("job document is required")
	}
	// YAML accepts JSON documents as well.
	j, err := job.Parse([]byte(doc), job.FormatYAML)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("invalid job: %w", err)
	}
	j.Confined = true
	prog, err := s.engine.Compile(ctx, j)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return s.respond(ctx, prog, args)
}

func (s *Server) handleCompileJob(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	id, _ := args["id"].(string)
	prog, err := s.engine.CompileJob(ctx, id)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return s.respond(ctx, prog, args)
}

func (s *Server) handleMeshScan(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	filename, _ := args["filename"].(string)
	if filename == "" {
		filename = "mesh"
	}
	mesh := template.DefaultMeshParams()
	if meshStr, ok := args["mesh"].(string); ok && meshStr != "" {
		raw := map[string]any{}
		if err := json.Unmarshal([]byte(meshStr), &raw); err != nil {
			return CompileResponse{}, fmt.Errorf("invalid mesh parameters: %w", err)
		}
		if err := job.Decode(raw, &mesh); err != nil {
			return CompileResponse{}, fmt.Errorf("invalid mesh parameters: %w", err)
		}
	}
	prog, err := s.engine.MeshScan(ctx, compiler.DefaultParams(filename), mesh)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("mesh scan failed: %w", err)
	}
	return s.respond(ctx, prog, args)
}

// respond stores the program when the caller asked for it.
func (s *Server) respond(ctx context.Context, prog *domain.Program, args map[string]interface{}) (CompileResponse, error) {
	resp := CompileResponse{
		ID:       prog.ID,
		Filename: prog.Filename,
		Stats:    prog.Stats,
	}
	if store, _ := args["store"].(bool); store {
		if err := s.engine.Save(ctx, prog); err != nil {
			return CompileResponse{}, fmt.Errorf("save failed: %w", err)
		}
		resp.Stored = true
		resp.URI = programURIPrefix + prog.ID
	}
	return resp, nil
}

func (s *Server) registerResources() {
	// EXPOSE: femto://programs/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(programURIPrefix+"{id}", "Stored PGM program",
		mcp.WithTemplateDescription("Program text ready for the A3200 controller."),
		mcp.WithTemplateMIMEType("text/plain"),
	), s.readProgram)
}

func (s *Server) readProgram(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, programURIPrefix)
	if id == "" || id == request.Params.URI {
		return nil, fmt.Errorf("invalid program uri %q", request.Params.URI)
	}
	prog, err := s.engine.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     prog.Text,
		},
	}, nil
}

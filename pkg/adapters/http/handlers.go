package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/schema"
	"github.com/aretw0/femto/pkg/template"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// MeshRequest is the body of POST /mesh.
type MeshRequest struct {
	Gcode compiler.Params     `mapstructure:"gcode"`
	Mesh  template.MeshParams `mapstructure:"mesh"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string, details []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details}); err != nil {
		logger.Error("error response encode failed", "error", err)
	}
}

// fail maps engine errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	var details []string
	switch {
	case errors.Is(err, domain.ErrProgramNotFound), errors.Is(err, domain.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, femto.ErrNoLoader):
		status = http.StatusNotImplemented
	case len(schema.ValidationErrors(err)) > 0:
		status = http.StatusUnprocessableEntity
		for _, e := range schema.ValidationErrors(err) {
			details = append(details, e.Error())
		}
	case errors.Is(err, errCompile):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "error", err)
	} else {
		s.Logger.Warn(op+" rejected", "status", status, "error", err)
	}
	writeError(w, s.Logger, status, fmt.Sprintf("%s: %v", op, err), details)
}

// errCompile marks errors caused by the submitted job rather than the server.
var errCompile = errors.New("compile error")

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxBodyBytes))
	if err != nil {
		writeError(w, s.Logger, http.StatusRequestEntityTooLarge, "request body too large", nil)
		return nil, false
	}
	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid request body", []string{err.Error()})
		return nil, false
	}
	return raw, true
}

func storeParam(r *http.Request) (bool, error) {
	var store bool
	if err := runtime.BindQueryParameter("form", true, false, "store", r.URL.Query(), &store); err != nil {
		return false, err
	}
	return store, nil
}

func idParam(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	return id, err
}

// respond optionally stores the program, then writes it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, op string, prog *domain.Program) {
	store, err := storeParam(r)
	if err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid store parameter", []string{err.Error()})
		return
	}
	if store {
		if err := s.Engine.Save(r.Context(), prog); err != nil {
			s.fail(w, op, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, prog)
}

// Compile handles the POST /compile request.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	j, err := job.FromMap(raw)
	if err != nil {
		s.fail(w, "compile", compileError(err))
		return
	}
	j.BaseDir = s.BaseDir
	j.Confined = true

	prog, err := s.Engine.Compile(r.Context(), j)
	if err != nil {
		s.fail(w, "compile", compileError(err))
		return
	}
	s.respond(w, r, "compile", prog)
}

// CompileJob handles the POST /jobs/{id}/compile request.
func (s *Server) CompileJob(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid id", []string{err.Error()})
		return
	}
	prog, err := s.Engine.CompileJob(r.Context(), id)
	if err != nil {
		s.fail(w, "compile", compileError(err))
		return
	}
	s.respond(w, r, "compile", prog)
}

// MeshScan handles the POST /mesh request.
func (s *Server) MeshScan(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	req := MeshRequest{
		Gcode: compiler.DefaultParams("mesh"),
		Mesh:  template.DefaultMeshParams(),
	}
	if err := job.Decode(raw, &req); err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid mesh request", []string{err.Error()})
		return
	}

	prog, err := s.Engine.MeshScan(r.Context(), req.Gcode, req.Mesh)
	if err != nil {
		s.fail(w, "mesh", compileError(err))
		return
	}
	s.respond(w, r, "mesh", prog)
}

// compileError marks err as caused by the request unless it is a
// lookup or context error.
func compileError(err error) error {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, femto.ErrNoLoader):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", errCompile, err)
}

// ListJobs handles the GET /jobs request.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Jobs(r.Context())
	if err != nil {
		s.fail(w, "list jobs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// ListPrograms handles the GET /programs request.
func (s *Server) ListPrograms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Programs(r.Context())
	if err != nil {
		s.fail(w, "list programs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.Program, bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid id", []string{err.Error()})
		return nil, false
	}
	prog, err := s.Engine.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "load program", err)
		return nil, false
	}
	return prog, true
}

// GetProgram handles the GET /programs/{id} request.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	if prog, ok := s.load(w, r); ok {
		s.writeJSON(w, http.StatusOK, prog)
	}
}

// GetProgramText handles the GET /programs/{id}/pgm request.
func (s *Server) GetProgramText(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", prog.Filename))
	_, _ = io.WriteString(w, prog.Text)
}

// DeleteProgram handles the DELETE /programs/{id} request.
func (s *Server) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, s.Logger, http.StatusBadRequest, "invalid id", []string{err.Error()})
		return
	}
	if err := s.Engine.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete program", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"angles/pkg/engine"
	"angles/pkg/fastjson"
	"angles/pkg/loader"
	"angles/pkg/utils/coerce"

	"github.com/go-chi/chi/v5"
)

const defaultPageSize = 50

type saveRequest struct {
	Source string `json:"source"`
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]any{"success": false, "message": "no template store configured"})
		return false
	}
	return true
}

// handleListTemplates pages through stored template names with ?limit and
// ?offset.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	q := r.URL.Query()
	limit := coerce.ToIntDef(q.Get("limit"), defaultPageSize)
	offset := coerce.ToIntDef(q.Get("offset"), 0)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	names, err := s.Store.Names(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list templates failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "could not list templates"})
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"templates": names,
		"limit":     limit,
		"offset":    offset,
	})
}

// handleSaveTemplate stores a template after checking that it transpiles.
func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "*")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "template name required"})
		return
	}

	var req saveRequest
	if err := fastjson.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes), true).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  []engine.Diagnostic{{Type: "error", Kind: engine.KindParse, Message: "invalid request body: " + err.Error()}},
		})
		return
	}

	if _, err := s.Transpiler.Transpile(name, req.Source); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "name": name, "errors": diagnostics(err)})
		return
	}

	if err := s.Store.Save(r.Context(), name, req.Source); err != nil {
		slog.Error("save template failed", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "could not save template"})
		return
	}
	if s.Cache != nil {
		s.Cache.Forget(name)
	}

	slog.Info("template saved", "name", name)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": name})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "*")

	if _, err := s.Store.SourceContext(r.Context(), name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, loader.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]any{"success": false, "message": err.Error()})
		return
	}

	if err := s.Store.Delete(r.Context(), name); err != nil {
		slog.Error("delete template failed", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "could not delete template"})
		return
	}
	if s.Cache != nil {
		s.Cache.Forget(name)
	}

	slog.Info("template deleted", "name", name)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": name})
}

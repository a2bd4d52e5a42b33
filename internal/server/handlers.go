package server

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"angles/pkg/engine"
	"angles/pkg/fastjson"
	"angles/pkg/loader"
	"angles/pkg/mappers"

	"github.com/go-chi/chi/v5"
)

const maxSourceBytes = 1 << 20

type transpileRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = fastjson.NewEncoder(w).Encode(v)
}

// diagnostics converts err into the list reported to clients.
func diagnostics(err error) []engine.Diagnostic {
	var d engine.Diagnostic
	if errors.As(err, &d) {
		return []engine.Diagnostic{d}
	}
	return []engine.Diagnostic{{Type: "error", Message: err.Error()}}
}

func (s *Server) handleTranspile(w http.ResponseWriter, r *http.Request) {
	var req transpileRequest
	if err := fastjson.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes), true).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  []engine.Diagnostic{{Type: "error", Kind: engine.KindParse, Message: "invalid request body: " + err.Error()}},
		})
		return
	}

	name := req.Name
	if name == "" {
		name = "request.html"
	}

	out, err := s.Transpiler.Transpile(name, req.Source)
	if err != nil {
		if r.URL.Query().Get("fallback") == "html" {
			s.writeErrorFragment(w, err)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"errors":  diagnostics(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"output":  out,
	})
}

// writeErrorFragment renders a failure as a small HTML block that can be
// swapped into a page in place of the template.
func (s *Server) writeErrorFragment(w http.ResponseWriter, err error) {
	var b strings.Builder
	b.WriteString(`<div class="angles-error">`)
	for _, d := range diagnostics(err) {
		b.WriteString("<p>")
		if d.Line > 0 {
			fmt.Fprintf(&b, "<strong>%s:%d:%d</strong> ", html.EscapeString(d.Filename), d.Line, d.Col)
		}
		b.WriteString(html.EscapeString(d.Message))
		b.WriteString("</p>")
		if d.Tag != "" {
			b.WriteString("<pre><code>" + html.EscapeString(d.Tag) + "</code></pre>")
		}
	}
	b.WriteString("</div>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	w.Write([]byte(s.policy.Sanitize(b.String())))
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if s.Cache == nil || name == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "template not found"})
		return
	}

	out, canonical, err := s.Cache.Get(name)
	switch {
	case errors.Is(err, loader.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "name": canonical, "errors": diagnostics(err)})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": canonical, "output": out})
	}
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.Cache != nil {
		s.Cache.Clear()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMappers(w http.ResponseWriter, r *http.Request) {
	reg := s.registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"has_default": reg.HasDefault(),
		"mappers":     mappers.Describe(reg),
	})
}

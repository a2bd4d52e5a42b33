package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

var playgroundTmpl = template.Must(template.New("playground").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>angles playground</title>
    <style>
        body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; }
        textarea, pre { width: 100%; min-height: 12rem; font-family: monospace; }
        .error { background: #ffebee; border-left: 5px solid #d32f2f; padding: 1rem; }
    </style>
</head>
<body>
<h1>angles playground</h1>
<form method="post" action="/">
    {{ .CSRFField }}
    <textarea name="source">{{ .Source }}</textarea>
    <button type="submit">Transpile</button>
</form>
{{ if .Error }}<div class="error">{{ .Error }}</div>{{ end }}
{{ if .Output }}<h2>Output</h2><pre>{{ .Output }}</pre>{{ end }}
</body>
</html>
`))

const playgroundExample = `<div dj-if="user.is_authenticated">
  <dj-include 'profile' />
</div>
<div dj-else>
  <dj-csrf />
</div>`

type playgroundPage struct {
	CSRFField template.HTML
	Source    string
	Output    string
	Error     string
}

func (s *Server) renderPlayground(w http.ResponseWriter, r *http.Request, status int, page playgroundPage) {
	page.CSRFField = csrf.TemplateField(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := playgroundTmpl.Execute(w, page); err != nil {
		slog.Error("render playground", "error", err)
	}
}

func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	s.renderPlayground(w, r, http.StatusOK, playgroundPage{Source: playgroundExample})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSourceBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	page := playgroundPage{Source: r.PostFormValue("source")}
	out, err := s.Transpiler.Transpile("playground.html", page.Source)
	if err != nil {
		page.Error = err.Error()
		s.renderPlayground(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	page.Output = out
	s.renderPlayground(w, r, http.StatusOK, page)
}

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"angles/pkg/config"
	"angles/pkg/dbmanager"
	"angles/pkg/fastjson"
	"angles/pkg/loader"
	"angles/pkg/mappers"
	"angles/pkg/transpiler"

	"github.com/andybalholm/brotli"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, configure func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	if configure != nil {
		configure(&cfg)
	}

	templates := loader.NewFSLoader(fstest.MapFS{
		"card.html":       {Data: []byte(`<div dj-if="x"><dj-csrf /></div>`)},
		"broken.html":     {Data: []byte(`<p dj-else>x</p>`)},
		"book/_list.html": {Data: []byte(`<ul></ul>`)},
	})

	tr, err := transpiler.New(cfg.TranspilerOptions(), mappers.NewRegistry(cfg.MapperOptions()), templates)
	require.NoError(t, err)

	return New(cfg, tr, loader.NewCache(templates, tr, cfg.Cache), nil)
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Header().Get("Content-Encoding") == "" {
		require.NoError(t, fastjson.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthAndMetrics(t *testing.T) {
	r := newServer(t, nil).Router()

	rec, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "angles_http_requests_total")
}

func TestTranspileEndpoint(t *testing.T) {
	r := newServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/transpile",
		strings.NewReader(`{"source": "<div dj-if=\"a\">1</div><div dj-else>2</div>"}`))
	rec, body := do(t, r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "{% if a %}<div>1</div>{% else %}<div>2</div>{% endif %}", body["output"])
}

func TestTranspileEndpointErrors(t *testing.T) {
	r := newServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/transpile",
		strings.NewReader(`{"name": "page.html", "source": "<p>a</p>\n<div dj-else>2</div>"}`))
	rec, body := do(t, r, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	diag := errs[0].(map[string]any)
	assert.Equal(t, "invalid_conditional_use", diag["kind"])
	assert.Equal(t, "page.html", diag["filename"])
	assert.Equal(t, 2.0, diag["line"])

	rec, _ = do(t, r, httptest.NewRequest(http.MethodPost, "/api/transpile", strings.NewReader(`{"source": 1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, httptest.NewRequest(http.MethodPost, "/api/transpile", strings.NewReader(`{"src": "x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranspileFallbackHTML(t *testing.T) {
	r := newServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/transpile?fallback=html",
		strings.NewReader(`{"source": "<dj-block 'a'>x</dj-verbatim>"}`))
	rec, _ := do(t, r, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	out := rec.Body.String()
	assert.Contains(t, out, "<strong>request.html:1:")
	assert.Contains(t, out, "&lt;/dj-verbatim&gt;")
	assert.NotContains(t, out, "<dj-")
}

func TestTemplateEndpoint(t *testing.T) {
	r := newServer(t, nil).Router()

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/card.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "card.html", body["name"])
	assert.Equal(t, "{% if x %}<div>{% csrf_token %}</div>{% endif %}", body["output"])

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/book/list.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "book/_list.html", body["name"])

	rec, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/missing.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/broken.html", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "broken.html", body["name"])

	rec, body = do(t, r, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestMappersEndpoint(t *testing.T) {
	r := newServer(t, func(c *config.Config) {
		c.Mappers = map[string]string{"hello": "hello_world"}
	}).Router()

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/mappers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["has_default"])

	var found bool
	for _, m := range body["mappers"].([]any) {
		entry := m.(map[string]any)
		if entry["name"] == "hello" {
			found = true
			assert.Equal(t, "hello_world", entry["directive"])
		}
	}
	assert.True(t, found)
}

func TestJWTProtectsAPI(t *testing.T) {
	const secret = "s3cret"
	r := newServer(t, func(c *config.Config) { c.JWTSecret = secret }).Router()

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/mappers", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body["error"])

	sign := func(key string, exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "tester",
			"exp": exp.Unix(),
		}).SignedString([]byte(key))
		require.NoError(t, err)
		return tok
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mappers", nil)
	req.Header.Set("Authorization", "Bearer "+sign(secret, time.Now().Add(time.Hour)))
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/mappers", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: sign(secret, time.Now().Add(time.Hour))})
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/mappers", nil)
	req.Header.Set("Authorization", "Bearer "+sign("other", time.Now().Add(time.Hour)))
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/mappers", nil)
	req.Header.Set("Authorization", "Bearer "+sign(secret, time.Now().Add(-time.Hour)))
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaygroundCSRF(t *testing.T) {
	r := newServer(t, func(c *config.Config) { c.CSRFKey = "0123456789abcdef0123456789abcdef" }).Router()

	rec, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="gorilla.csrf.Token"`)
	assert.Contains(t, rec.Body.String(), "dj-if=&#34;user.is_authenticated&#34;")

	form := url.Values{"source": {"<dj-csrf />"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimit(t *testing.T) {
	r := newServer(t, func(c *config.Config) {
		c.RateLimitRequests = 2
		c.RateLimitWindow = 60
	}).Router()

	var codes []int
	for range 3 {
		rec, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCSRFKey(t *testing.T) {
	assert.Len(t, csrfKey(""), 32)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), csrfKey("0123456789abcdef0123456789abcdef"))
	assert.Len(t, csrfKey("short"), 32)
	assert.Equal(t, csrfKey("short"), csrfKey("short"))
}

func TestBrotliCompression(t *testing.T) {
	r := newServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/templates/card.html", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	rec, _ := do(t, r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))

	data, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, fastjson.Unmarshal(data, &body))
	assert.Equal(t, "card.html", body["name"])

	req = httptest.NewRequest(http.MethodGet, "/api/templates/missing.html", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec, _ = do(t, r, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))

	off := newServer(t, func(c *config.Config) { c.Compression = false }).Router()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec, _ = do(t, off, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "OK", rec.Body.String())
}

func newStoreServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	db := dbmanager.NewDBManager()
	require.NoError(t, db.AddConnection(ctx, "default", "sqlite", ":memory:", 1, 1))
	t.Cleanup(func() { _ = db.Close() })

	conn, dialect := db.GetDefault()
	store := loader.NewSQLLoader(conn, dialect, "angles_templates")
	require.NoError(t, store.Migrate(ctx))

	cfg := config.Default()
	tr, err := transpiler.New(cfg.TranspilerOptions(), mappers.NewRegistry(cfg.MapperOptions()), store)
	require.NoError(t, err)

	srv := New(cfg, tr, loader.NewCache(store, tr, cfg.Cache), db)
	srv.Store = store
	return srv
}

func putTemplate(t *testing.T, h http.Handler, name, source string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, err := fastjson.Marshal(map[string]string{"source": source})
	require.NoError(t, err)
	return do(t, h, httptest.NewRequest(http.MethodPut, "/api/templates/"+name, strings.NewReader(string(body))))
}

func TestTemplateStoreEndpoints(t *testing.T) {
	r := newStoreServer(t).Router()

	rec, body := putTemplate(t, r, "cards/item.html", `<li dj-if="item">{{ item }}</li>`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cards/item.html", body["name"])

	rec, _ = putTemplate(t, r, "page.html", `<p>{{ title }}</p>`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"cards/item.html", "page.html"}, body["templates"])

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates?limit=1&offset=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"page.html"}, body["templates"])

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/cards/item.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{% if item %}<li>{{ item }}</li>{% endif %}", body["output"])

	rec, _ = putTemplate(t, r, "cards/item.html", `<li>{{ item }}</li>`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/cards/item.html", nil))
	assert.Equal(t, "<li>{{ item }}</li>", body["output"])

	rec, _ = do(t, r, httptest.NewRequest(http.MethodDelete, "/api/templates/cards/item.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates/cards/item.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, r, httptest.NewRequest(http.MethodDelete, "/api/templates/cards/item.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateStoreRejectsBrokenSource(t *testing.T) {
	r := newStoreServer(t).Router()

	rec, body := putTemplate(t, r, "broken.html", `<p dj-else>x</p>`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = do(t, r, httptest.NewRequest(http.MethodPut, "/api/templates/x.html", strings.NewReader(`{"src": 1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	assert.Equal(t, []any{}, body["templates"])
}

func TestTemplateStoreNotConfigured(t *testing.T) {
	r := newServer(t, nil).Router()

	rec, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec, _ = putTemplate(t, r, "a.html", "<p></p>")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec, _ = do(t, r, httptest.NewRequest(http.MethodDelete, "/api/templates/a.html", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

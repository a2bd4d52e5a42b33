package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter("production", &buf)

	Log.Info("hello", "k", "v")
	Log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.NotContains(t, out, "hidden")
}

func TestSetupWriterDevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter("development", &buf)

	Log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestMiddlewareLevels(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter("development", &buf)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/missing")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "bytes=4")
}

package server

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var brWriterPool = sync.Pool{
	New: func() any {
		return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
	},
}

type brotliResponseWriter struct {
	http.ResponseWriter
	bw          *brotli.Writer
	wroteHeader bool
	compress    bool
}

// WriteHeader decides whether the body gets compressed. Only 200 responses
// with a text-like content type are.
func (w *brotliResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if code == http.StatusOK && compressible(w.Header().Get("Content-Type")) {
		w.compress = true
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "br")
		w.Header().Add("Vary", "Accept-Encoding")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	return w.bw.Write(b)
}

func (w *brotliResponseWriter) Flush() {
	if w.compress {
		_ = w.bw.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
		return false
	case strings.HasPrefix(ct, "text/"),
		strings.HasPrefix(ct, "application/json"),
		strings.HasPrefix(ct, "application/javascript"),
		strings.Contains(ct, "svg"):
		return true
	}
	return false
}

// Brotli compresses responses for clients that accept br.
func Brotli(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		bw := brWriterPool.Get().(*brotli.Writer)
		defer brWriterPool.Put(bw)
		bw.Reset(w)

		brw := &brotliResponseWriter{ResponseWriter: w, bw: bw}
		defer func() {
			if brw.compress {
				_ = bw.Close()
			}
		}()

		next.ServeHTTP(brw, r)
	})
}

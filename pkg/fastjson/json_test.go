package fastjson

import (
	"bytes"
	"strings"
	"testing"

	"angles/pkg/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticEncoding(t *testing.T) {
	d := engine.Diagnostic{Type: "error", Kind: engine.KindParse, Message: "bad", Line: 2, Col: 3, Offset: 40}

	data, err := Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","kind":"parse","message":"bad","line":2,"col":3}`, string(data))
}

func TestWritePretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"success": true}, true))
	assert.Equal(t, "{\n  \"success\": true\n}\n", buf.String())
}

func TestStrictDecoder(t *testing.T) {
	var v struct {
		Source string `json:"source"`
	}

	err := NewDecoder(strings.NewReader(`{"source":"x","extra":1}`), true).Decode(&v)
	assert.Error(t, err)

	err = NewDecoder(strings.NewReader(`{"source":"x","extra":1}`), false).Decode(&v)
	require.NoError(t, err)
	assert.Equal(t, "x", v.Source)
}

func BenchmarkMarshalDiagnostic(b *testing.B) {
	d := engine.Diagnostic{Type: "error", Kind: engine.KindInvalidEndTag, Message: "x", Tag: "</dj-a>", Other: "<dj-b>"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(d); err != nil {
			b.Fatal(err)
		}
	}
}

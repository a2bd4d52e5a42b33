package fastjson

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// Marshal serializes v to JSON using the fast encoder.
func Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal deserializes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is like Marshal but applies indentation for pretty-printing.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

func NewEncoder(w io.Writer) *gojson.Encoder {
	return gojson.NewEncoder(w)
}

// NewDecoder returns a decoder that rejects unknown fields when strict is
// set.
func NewDecoder(r io.Reader, strict bool) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec
}

// Write encodes v to w followed by a newline, indented when pretty is set.
func Write(w io.Writer, v any, pretty bool) error {
	enc := gojson.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

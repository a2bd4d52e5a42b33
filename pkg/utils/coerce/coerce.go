// Package coerce converts loosely typed values (environment strings, decoded
// JSON) without panicking.
package coerce

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ToString converts input to a string. Nil becomes "".
func ToString(input any) string {
	if input == nil {
		return ""
	}
	s, err := cast.ToStringE(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return s
}

func ToInt(input any) (int, error) {
	if input == nil {
		return 0, nil
	}
	i, err := cast.ToIntE(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to int", input, input)
	}
	return i, nil
}

// ToBool understands true/false, 1/0, "t"/"f" and the other spellings cast
// accepts.
func ToBool(input any) (bool, error) {
	if input == nil {
		return false, nil
	}
	if s, ok := input.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(input)
	if err != nil {
		return false, fmt.Errorf("failed to coerce value '%v' (type %T) to bool", input, input)
	}
	return b, nil
}

func ToIntDef(input any, defaultVal int) int {
	i, err := ToInt(input)
	if err != nil {
		return defaultVal
	}
	return i
}

func ToBoolDef(input any, defaultVal bool) bool {
	b, err := ToBool(input)
	if err != nil {
		return defaultVal
	}
	return b
}

// ToStringMap converts a decoded JSON object into string values. Non-string
// values are stringified.
func ToStringMap(input any) (map[string]string, error) {
	if input == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(input)
	if err != nil {
		return nil, fmt.Errorf("failed to coerce value (type %T) to map", input)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ToString(v)
	}
	return out, nil
}

// ToList splits a comma separated string, trimming blanks. Slices are
// converted element by element.
func ToList(input any) []string {
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return cast.ToStringSlice(v)
	}
}

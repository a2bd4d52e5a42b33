package mappers

import (
	"fmt"

	"angles/pkg/engine"
	"angles/pkg/evaluator"
	"angles/pkg/scan"
)

// codeMapper renders `{% <directive> CODE [as NAME] %}` for tags such as
// `<dj-call code='slugify("Hi")' as='slug'>`. The code must parse as a call
// chain; it is passed through unchanged.
func codeMapper(directive string) engine.HandlerFunc {
	return func(tag *engine.Tag, scope *engine.Scope) (string, error) {
		if tag.IsEnd {
			return "", nil
		}

		code, ok := tag.Attributes.PopValue("code")
		if !ok || scan.Dequote(code) == "" {
			return "", engine.NewMissingAttributeError("code")
		}
		code = scan.Dequote(code)

		if _, err := evaluator.ParseChain(code); err != nil {
			return "", err
		}

		out := fmt.Sprintf("{%% %s %s", directive, code)
		if as, ok := tag.Attributes.PopValue("as"); ok && as != "" {
			out += " as " + scan.Dequote(as)
		}
		return out + " %}", nil
	}
}

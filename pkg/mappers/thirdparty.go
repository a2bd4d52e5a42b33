package mappers

import (
	"fmt"

	"angles/pkg/engine"
)

// componentMapper renders tags for component libraries that take the
// component reference first, e.g. `{% component 'calendar' date=x / %}`.
func componentMapper(directive, key string) engine.HandlerFunc {
	return func(tag *engine.Tag, scope *engine.Scope) (string, error) {
		if tag.IsEnd {
			return fmt.Sprintf("{%% end%s %%}", directive), nil
		}

		ref, err := tag.PopValueOrFirstKey(key)
		if err != nil {
			return "", err
		}

		out := fmt.Sprintf("{%% %s %s", directive, ref)
		if tag.Attributes.Len() > 0 {
			out += " " + tag.Attributes.String()
		}
		if tag.IsSelfClosing {
			out += " /"
		}
		return out + " %}", nil
	}
}

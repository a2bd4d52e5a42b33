package mappers

import (
	"fmt"
	"strings"

	"angles/pkg/engine"
	"angles/pkg/scan"
)

func mapExtends(tag *engine.Tag, scope *engine.Scope) (string, error) {
	if tag.Attributes.Len() == 0 {
		return "", engine.NewMissingAttributeError("parent")
	}

	parent, err := tag.PopValueOrFirstKey("parent")
	if err != nil {
		return "", err
	}

	if !strings.Contains(parent, ".") {
		parent = "'" + scan.Dequote(parent) + ".html'"
	}

	return fmt.Sprintf("{%% extends %s %%}", parent), nil
}

// blockMapper renders block-like directives (`block`, `partialdef`) whose
// end tag may repeat the name.
func blockMapper(directive string) engine.HandlerFunc {
	return func(tag *engine.Tag, scope *engine.Scope) (string, error) {
		if tag.IsEnd {
			return mapEndBlock(tag, directive)
		}

		if tag.Attributes.Len() == 0 {
			return "", engine.NewMissingAttributeError("name")
		}

		name, err := tag.PopValueOrFirstKey("name")
		if err != nil {
			return "", err
		}
		name = scan.Dequote(name)

		out := fmt.Sprintf("{%% %s %s ", directive, name)
		if tag.Attributes.Len() > 0 {
			out += tag.Attributes.String() + " "
		}
		out += "%}"

		if tag.IsSelfClosing {
			out += fmt.Sprintf("{%% end%s %s %%}", directive, name)
		}
		return out, nil
	}
}

func mapEndBlock(tag *engine.Tag, directive string) (string, error) {
	name, err := tag.Attributes.PopValueOrFirstKey("name")
	if err != nil {
		name = ""
	}

	if name != "" && tag.Start != nil {
		if err := tag.Start.ParseAttributes(); err != nil {
			return "", err
		}
		if startName, err := tag.Start.Attributes.PopValueOrFirstKey("name"); err == nil && scan.Dequote(startName) != scan.Dequote(name) {
			return "", engine.NewInvalidEndTagError(tag, tag.Start)
		}
	}

	if name == "" && tag.Start != nil {
		if err := tag.Start.ParseAttributes(); err != nil {
			return "", err
		}
		if startName, err := tag.Start.Attributes.PopValueOrFirstKey("name"); err == nil {
			name = startName
		}
	}

	if name != "" {
		return fmt.Sprintf("{%% end%s %s %%}", directive, scan.Dequote(name)), nil
	}
	return fmt.Sprintf("{%% end%s %%}", directive), nil
}

func mapImage(tag *engine.Tag, scope *engine.Scope) (string, error) {
	src, err := tag.PopValueOrFirstKey("src")
	if err != nil {
		return "", err
	}

	if tag.Attributes.Len() > 0 {
		return fmt.Sprintf(`<img src="{%% static %s %%}" %s />`, src, tag.Attributes), nil
	}
	return fmt.Sprintf(`<img src="{%% static %s %%}" />`, src), nil
}

func mapCSS(tag *engine.Tag, scope *engine.Scope) (string, error) {
	href, err := tag.PopValueOrFirstKey("href")
	if err != nil {
		return "", err
	}

	if !tag.Attributes.Has("rel") {
		if err := tag.Attributes.Append(`rel="stylesheet"`); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf(`<link href="{%% static %s %%}" %s />`, href, tag.Attributes), nil
}

// mapAutoescape handles `<dj-autoescape on>` as well as the `autoescape-on` and
// `autoescape-off` shorthands.
func mapAutoescape(tag *engine.Tag, scope *engine.Scope) (string, error) {
	if tag.IsEnd {
		return "{% endautoescape %}", nil
	}

	mode, ok := strings.CutPrefix(tag.Name, "autoescape-")
	if !ok {
		var err error
		if mode, err = tag.PopValueOrFirstKey("mode"); err != nil {
			return "", err
		}
		mode = scan.Dequote(mode)
	}

	if mode != "on" && mode != "off" {
		return "", engine.NewParseError("autoescape must be on or off, got %q", mode)
	}
	return fmt.Sprintf("{%% autoescape %s %%}", mode), nil
}

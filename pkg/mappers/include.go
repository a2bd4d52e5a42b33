package mappers

import (
	"fmt"
	"strings"

	"angles/pkg/engine"
	"angles/pkg/scan"
	"angles/pkg/slots"

	"github.com/gosimple/slug"
)

// DefaultExtension is appended to template names without an extension.
const DefaultExtension = ".html"

// TemplateFile returns the quoted template file referenced by an include-style
// tag. It tries `src`, then `template`, then falls back to the tag name; end
// tags reuse their start tag's reference.
func TemplateFile(tag *engine.Tag, ext string) (string, error) {
	file, err := popTemplateAttribute(tag)
	if err != nil {
		return "", err
	}

	if file == "" {
		if tag.IsEnd && tag.Start != nil {
			if err := tag.Start.ParseAttributes(); err != nil {
				return "", err
			}
			return TemplateFile(tag.Start, ext)
		}
		file = tag.Name
	}

	if ext == "" {
		ext = DefaultExtension
	}

	doubleQuoted := strings.HasPrefix(file, `"`) && scan.IsQuoted(file)
	file = scan.Dequote(file)

	if !strings.Contains(file, ".") {
		file += ext
	}

	if doubleQuoted {
		return `"` + file + `"`, nil
	}
	return "'" + file + "'", nil
}

// popTemplateAttribute consumes `src` or `template`; "" means neither was
// given and the attributes are left as parsed. The `no-wrap` flag is never
// taken as a template name.
func popTemplateAttribute(tag *engine.Tag) (string, error) {
	for _, key := range []string{"src", "template"} {
		value, err := tag.Attributes.PopValueOrFirstKey(key)
		if err == nil && value != "" && value != "no-wrap" {
			return value, nil
		}
		if err := tag.ParseAttributes(); err != nil {
			return "", err
		}
	}
	return "", nil
}

// WrapperName derives the synthetic wrapper element name from a template
// file: `'more/partial.html'` becomes `<prefix>more-partial`.
func WrapperName(prefix, file string) string {
	name := scan.Dequote(file)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, "!")
	return prefix + slug.Make(name)
}

// stripModule turns `'app:file.html'` into `'app.html'`.
func stripModule(file string) string {
	colon := strings.IndexByte(file, ':')
	if colon < 0 {
		return file
	}
	if dot := strings.IndexByte(file[colon:], '.'); dot >= 0 {
		return file[:colon] + file[colon+dot:]
	}
	if scan.IsQuoted(file) {
		return file[:colon] + file[len(file)-1:]
	}
	return file[:colon]
}

func mapInclude(tag *engine.Tag, scope *engine.Scope) (string, error) {
	if tag.Attributes.Len() == 0 && !tag.IsEnd {
		return "", engine.NewMissingAttributeError("template")
	}
	return renderInclude(tag, scope)
}

// mapDefault treats an unknown tag name as "include the template named after
// the tag".
func mapDefault(tag *engine.Tag, scope *engine.Scope) (string, error) {
	return renderInclude(tag, scope)
}

func renderInclude(tag *engine.Tag, scope *engine.Scope) (string, error) {
	file, err := TemplateFile(tag, scope.Extension)
	if err != nil {
		return "", err
	}
	wrapper := WrapperName(scope.WrapperPrefix, file)

	if tag.IsEnd {
		shadow, wrapped := tag.IsShadow, tag.IsWrapped
		if tag.Start != nil {
			shadow = shadow || tag.Start.IsShadow
			wrapped = tag.Start.IsWrapped
		}

		out := ""
		if shadow {
			out += "</template>"
		}
		if wrapped {
			out += "</" + wrapper + ">"
		}
		return out, nil
	}

	file = stripModule(file)
	if scope.Loader != nil {
		if name, ok := scope.Loader.Resolve(scan.Dequote(file)); ok {
			file = "'" + name + "'"
		}
	}

	classes := ""
	if value, ok := tag.Attributes.PopValue("class"); ok && value != "" {
		if scan.Dequote(value) != "" && !tag.IsWrapped {
			return "", engine.NewInvalidAttributeCombinationError(tag.Name, "`no-wrap` and `class` attributes cannot be used together")
		}
		classes = " class=" + value
	}

	if !tag.IsWrapped {
		_ = tag.Attributes.Remove("no-wrap")
	}

	out := fmt.Sprintf("{%% include %s %%}", file)
	if tag.Attributes.Len() > 0 {
		out = fmt.Sprintf("{%% include %s %s %%}", file, tag.Attributes)
	}

	if tag.IsShadow {
		out = "<template shadowrootmode='open'>" + out
		if tag.IsSelfClosing {
			out += "</template>"
		}
	}

	if tag.IsWrapped {
		out = "<" + wrapper + classes + ">" + out
		if tag.IsSelfClosing {
			out += "</" + wrapper + ">"
		}
	}

	return out, nil
}

// mapSlottedInclude inlines the template source with its slots filled. The
// wrapper is closed by the end tag.
func mapSlottedInclude(tag *engine.Tag, scope *engine.Scope) (string, error) {
	file, err := TemplateFile(tag, scope.Extension)
	if err != nil {
		return "", err
	}
	wrapper := WrapperName(scope.WrapperPrefix, file)

	body := ""
	if scope.Loader != nil {
		if name, ok := scope.Loader.Resolve(scan.Dequote(stripModule(file))); ok {
			src, err := scope.Loader.Source(name)
			if err != nil {
				return "", fmt.Errorf("load slotted template %s: %w", name, err)
			}
			body = slots.Fill(src, scope.Slots)
		}
	}

	return "<" + wrapper + ">" + body, nil
}

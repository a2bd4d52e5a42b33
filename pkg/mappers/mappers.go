// Package mappers holds the built-in tag handlers and assembles them into an
// engine.Registry.
package mappers

import (
	"fmt"
	"sort"
	"strings"

	"angles/pkg/engine"
)

// Optional third-party mappers, registered only when asked for.
const (
	ThirdPartyPartial   = "partial"
	ThirdPartyComponent = "component"
	ThirdPartyBird      = "bird"
)

// Options selects what goes into a registry.
type Options struct {
	// DefaultInclude makes unknown tag names include a template named after
	// the tag.
	DefaultInclude bool
	// ThirdParty lists optional mappers to add.
	ThirdParty []string
	// Static maps extra tag names straight to directive names. They override
	// built-ins.
	Static map[string]string
}

// Key identifies a registry configuration for caching.
func (o Options) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "default=%t;", o.DefaultInclude)

	third := append([]string(nil), o.ThirdParty...)
	sort.Strings(third)
	fmt.Fprintf(&b, "third=%s;", strings.Join(third, ","))

	keys := make([]string, 0, len(o.Static))
	for k := range o.Static {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, o.Static[k])
	}
	return b.String()
}

func withMeta(m engine.Mapper, desc, example string) engine.Mapper {
	return m.WithMeta(engine.MapperMeta{Description: desc, Example: example})
}

// Builtins returns the built-in mappers by tag name.
func Builtins() map[string]engine.Mapper {
	include := engine.Handler(mapInclude)
	include.Include = true

	return map[string]engine.Mapper{
		"extends": withMeta(engine.Handler(mapExtends),
			"Extends a parent template.", "<dj-extends 'base' />"),
		"block": withMeta(engine.Handler(blockMapper("block")),
			"Defines a named block.", "<dj-block name='content'>...</dj-block>"),
		"verbatim": withMeta(engine.Static("verbatim"),
			"Stops the template engine from rendering the contents.", "<dj-verbatim>{{ raw }}</dj-verbatim>"),
		"include": withMeta(include,
			"Includes a template, wrapped in an element named after it.", "<dj-include 'partial' />"),
		"comment": withMeta(engine.Static("comment"),
			"Comments out the contents.", "<dj-comment>...</dj-comment>"),
		"#": withMeta(engine.Static("comment"),
			"Short form of comment.", "<dj-#>...</dj-#>"),
		"autoescape": withMeta(engine.Handler(mapAutoescape),
			"Controls autoescaping of the contents.", "<dj-autoescape off>...</dj-autoescape>"),
		"autoescape-on": withMeta(engine.Handler(mapAutoescape),
			"Turns autoescaping on.", "<dj-autoescape-on>...</dj-autoescape-on>"),
		"autoescape-off": withMeta(engine.Handler(mapAutoescape),
			"Turns autoescaping off.", "<dj-autoescape-off>...</dj-autoescape-off>"),
		"csrf-token": withMeta(engine.Static("csrf_token"),
			"Renders the CSRF token input.", "<dj-csrf-token />"),
		"csrf": withMeta(engine.Static("csrf_token"),
			"Short form of csrf-token.", "<dj-csrf />"),
		"csrf-input": withMeta(engine.Static("csrf_token"),
			"Alias of csrf-token.", "<dj-csrf-input />"),
		"debug": withMeta(engine.Static("debug"),
			"Outputs debugging information.", "<dj-debug />"),
		"filter": withMeta(engine.Static("filter"),
			"Applies filters to the contents.", "<dj-filter upper>...</dj-filter>"),
		"lorem": withMeta(engine.Static("lorem"),
			"Outputs placeholder text.", "<dj-lorem 2 w random />"),
		"now": withMeta(engine.Static("now"),
			"Outputs the current date.", `<dj-now "Y" />`),
		"spaceless": withMeta(engine.Static("spaceless"),
			"Removes whitespace between tags.", "<dj-spaceless>...</dj-spaceless>"),
		"templatetag": withMeta(engine.Static("templatetag"),
			"Outputs template syntax characters.", "<dj-templatetag openblock />"),
		"image": withMeta(engine.Handler(mapImage),
			"Renders an img pointing at a static file.", "<dj-image 'logo.png' />"),
		"css": withMeta(engine.Handler(mapCSS),
			"Renders a stylesheet link to a static file.", "<dj-css 'site.css' />"),
		"model": withMeta(engine.Handler(codeMapper("model")),
			"Runs a model query and stores the result.", "<dj-model code='Book.objects.first()' as='book' />"),
		"call": withMeta(engine.Handler(codeMapper("call")),
			"Calls a function and stores the result.", `<dj-call code='slugify("Hi")' as='slug' />`),
	}
}

// ThirdPartyMappers returns the optional mappers by name.
func ThirdPartyMappers() map[string]engine.Mapper {
	return map[string]engine.Mapper{
		ThirdPartyPartial: withMeta(engine.Handler(blockMapper("partialdef")),
			"Defines a template partial.", "<dj-partial name='row'>...</dj-partial>"),
		ThirdPartyComponent: withMeta(engine.Handler(componentMapper("component", "name")),
			"Renders a registered component.", "<dj-component name='calendar' />"),
		ThirdPartyBird: withMeta(engine.Handler(componentMapper("bird", "template")),
			"Renders a bird component.", "<dj-bird template='button'>...</dj-bird>"),
	}
}

// DefaultMapper is the fallback used for unknown tag names.
func DefaultMapper() engine.Mapper {
	m := engine.Handler(mapDefault)
	m.Include = true
	return m
}

// NewRegistry assembles a registry from the built-ins and opts.
func NewRegistry(opts Options) *engine.Registry {
	reg := engine.NewRegistry()

	for name, m := range Builtins() {
		reg.Register(name, m)
	}

	third := ThirdPartyMappers()
	for _, name := range opts.ThirdParty {
		if m, ok := third[name]; ok {
			reg.Register(name, m)
		}
	}

	for name, directive := range opts.Static {
		reg.Register(name, withMeta(engine.Static(directive), "Custom mapper.", ""))
	}

	if opts.DefaultInclude {
		reg.SetDefault(DefaultMapper())
	}
	reg.SetSlotHandler(mapSlottedInclude)

	return reg
}

// Cached returns the registry for opts from cache, building it on first use.
func Cached(cache *engine.RegistryCache, opts Options) *engine.Registry {
	return cache.Get(opts.Key(), func() *engine.Registry {
		return NewRegistry(opts)
	})
}

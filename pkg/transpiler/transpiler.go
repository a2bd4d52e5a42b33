// Package transpiler rewrites custom tags and conditional attributes into
// Django template directives.
//
// A run masks comments, then applies the attribute pass, the expression pass
// and the tag pass in that order, and finally restores the comments. Every
// pass collects positional edits against the text it was given and applies
// them in one go.
package transpiler

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"angles/pkg/engine"
)

// Options are the settings the transpiler reads. The zero value is not
// useful; start from DefaultOptions.
type Options struct {
	// TagPrefix is a regular expression fragment matched right after `<`.
	// Empty means any element name.
	TagPrefix string
	// AttributePrefix is the fragment in front of if/elif/else/endif/fi.
	AttributePrefix string
	// WrapperPrefix is prepended to the synthetic wrapper element of includes.
	WrapperPrefix string
	// Extension is appended to template names that have none.
	Extension string
	// ExplicitOnly skips tags that are not registered by name even when the
	// registry has a default mapper.
	ExplicitOnly bool
	SlotsEnabled bool
	Tag          engine.TagOptions
}

func DefaultOptions() Options {
	return Options{
		TagPrefix:       `dj-|\$`,
		AttributePrefix: `dj-`,
		WrapperPrefix:   "dj-",
		Extension:       ".html",
		Tag:             engine.TagOptions{KebabCase: true},
	}
}

// Transpiler converts template sources. It is safe for concurrent use as
// long as the registry is not modified.
type Transpiler struct {
	opts     Options
	registry *engine.Registry
	loader   engine.Loader

	tagRe         *regexp.Regexp
	closeRe       *regexp.Regexp
	attrRe        *regexp.Regexp
	commentRe     *regexp.Regexp
	commentOpenRe *regexp.Regexp
	commentEndRe  *regexp.Regexp
}

// New compiles the prefix patterns of opts. loader may be nil, in which case
// include names are never canonicalised and slotted includes render empty.
func New(opts Options, registry *engine.Registry, loader engine.Loader) (*Transpiler, error) {
	if registry == nil {
		return nil, fmt.Errorf("transpiler: registry is required")
	}

	t := &Transpiler{opts: opts, registry: registry, loader: loader}

	tagPrefix := group(opts.TagPrefix)
	attrPrefix := group(opts.AttributePrefix)

	var err error
	if t.tagRe, err = regexp.Compile(`<(?P<end>/?)` + tagPrefix + `(?P<name>[A-Za-z_#$])`); err != nil {
		return nil, fmt.Errorf("invalid tag prefix %q: %w", opts.TagPrefix, err)
	}
	if t.closeRe, err = regexp.Compile(`</` + tagPrefix + `[A-Za-z_#$]`); err != nil {
		return nil, fmt.Errorf("invalid tag prefix %q: %w", opts.TagPrefix, err)
	}
	if t.attrRe, err = regexp.Compile(`\s(?P<name>` + attrPrefix + `(?P<kind>elif|else|endif|if|fi))`); err != nil {
		return nil, fmt.Errorf("invalid attribute prefix %q: %w", opts.AttributePrefix, err)
	}
	if err = t.compileComments(tagPrefix); err != nil {
		return nil, fmt.Errorf("invalid tag prefix %q: %w", opts.TagPrefix, err)
	}

	return t, nil
}

// MustNew is New for static configurations.
func MustNew(opts Options, registry *engine.Registry, loader engine.Loader) *Transpiler {
	t, err := New(opts, registry, loader)
	if err != nil {
		panic(err)
	}
	return t
}

func group(fragment string) string {
	if fragment == "" {
		return ""
	}
	return "(?:" + fragment + ")"
}

func (t *Transpiler) Registry() *engine.Registry {
	return t.registry
}

func (t *Transpiler) Options() Options {
	return t.opts
}

// Transpile converts source. name is only used to position diagnostics and
// may be empty. A failing run returns no output.
func (t *Transpiler) Transpile(name, source string) (string, error) {
	start := time.Now()

	out, err := t.run(name, source)
	if err != nil {
		observe(err, time.Since(start))
		slog.Debug("transpile failed", "template", name, "error", err)
		return "", err
	}

	observe(nil, time.Since(start))
	slog.Debug("transpiled", "template", name, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}

// run positions diagnostics against the text of the pass that raised them;
// only the attribute pass sees the source unchanged apart from masking.
func (t *Transpiler) run(name, source string) (string, error) {
	masked, comments := t.maskComments(source)

	text, err := t.replaceAttributes(masked)
	if err != nil {
		return "", engine.Locate(err, name, masked)
	}

	text = replaceExpressions(text)

	out, err := t.replaceTags(text)
	if err != nil {
		return "", engine.Locate(err, name, text)
	}
	text = out

	return t.unmaskComments(text, comments), nil
}

package engine

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
)

// Loader is the template lookup the include handlers depend on.
type Loader interface {
	// Resolve returns the canonical name of a template, if it exists.
	Resolve(name string) (string, bool)
	// Source returns the raw contents of a template.
	Source(name string) (string, error)
}

// Slot is a named child element passed to an include.
type Slot struct {
	Name string
	HTML string
}

// Scope is what a handler can see besides the tag itself.
type Scope struct {
	Loader        Loader
	WrapperPrefix string
	Extension     string // appended to template names without one
	Slots         []Slot
}

// HandlerFunc renders the directive text for a tag. An empty result means
// the tag is removed from the output.
type HandlerFunc func(tag *Tag, scope *Scope) (string, error)

type InputMeta struct {
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// MapperMeta documents a registry entry.
type MapperMeta struct {
	Description string               `json:"description"`
	Example     string               `json:"example"`
	Inputs      map[string]InputMeta `json:"inputs,omitempty"`
}

// Mapper is either a static directive name or a handler.
type Mapper struct {
	Directive string
	Handler   HandlerFunc
	// Include marks include-style handlers that switch to the slot-aware
	// include when slots are present.
	Include bool
	Meta    MapperMeta
}

// Static maps a tag straight to a directive name.
func Static(directive string) Mapper {
	return Mapper{Directive: directive}
}

// Handler maps a tag through fn.
func Handler(fn HandlerFunc) Mapper {
	return Mapper{Handler: fn}
}

func (m Mapper) IsStatic() bool {
	return m.Handler == nil
}

// WithMeta returns a copy of m carrying meta.
func (m Mapper) WithMeta(meta MapperMeta) Mapper {
	m.Meta = meta
	return m
}

// Registry maps tag names to mappers, with an optional default used for any
// unknown name.
type Registry struct {
	entries map[string]Mapper
	def     *Mapper
	slot    HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Mapper)}
}

// Register adds or replaces the mapper for name.
func (r *Registry) Register(name string, m Mapper) {
	r.entries[name] = m
}

// SetDefault installs the fallback used for unknown tag names.
func (r *Registry) SetDefault(m Mapper) {
	r.def = &m
}

func (r *Registry) ClearDefault() {
	r.def = nil
}

// SetSlotHandler installs the include variant used when a tag carries slots.
func (r *Registry) SetSlotHandler(fn HandlerFunc) {
	r.slot = fn
}

func (r *Registry) HasDefault() bool {
	return r.def != nil
}

// Has reports whether name is registered explicitly.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Lookup returns the mapper for name, falling back to the default.
func (r *Registry) Lookup(name string) (Mapper, bool) {
	if m, ok := r.entries[name]; ok {
		return m, true
	}
	if r.def != nil {
		return *r.def, true
	}
	return Mapper{}, false
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Meta returns the documentation of an explicit entry.
func (r *Registry) Meta(name string) (MapperMeta, bool) {
	m, ok := r.entries[name]
	return m.Meta, ok
}

// Render produces the directive for tag. Panics raised by handlers are
// recovered and returned as a Diagnostic.
func (r *Registry) Render(tag *Tag, scope *Scope) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := string(debug.Stack())
			slog.Error("panic recovered in mapper",
				"panic", rec,
				"tag", tag.Name,
				"offset", tag.Offset,
				"stack", stack,
			)
			out = ""
			err = Diagnostic{
				Type:    "panic",
				Kind:    KindPanic,
				Message: fmt.Sprintf("mapper for <%s> panicked: %v", tag.Name, rec),
				Offset:  tag.Offset,
				Tag:     tag.HTML,
			}
		}
	}()

	if scope == nil {
		scope = &Scope{}
	}
	if !tag.HasMapper {
		return "", nil
	}

	m := tag.Mapper
	if len(scope.Slots) > 0 && m.Include && r.slot != nil {
		return r.render(r.slot, tag, scope)
	}
	if m.Handler != nil {
		return r.render(m.Handler, tag, scope)
	}

	directive := m.Directive
	if tag.IsEnd {
		directive = "end" + directive
	}
	if tag.Attributes.Len() > 0 {
		return fmt.Sprintf("{%% %s %s %%}", directive, tag.Attributes), nil
	}
	return fmt.Sprintf("{%% %s %%}", directive), nil
}

func (r *Registry) render(fn HandlerFunc, tag *Tag, scope *Scope) (string, error) {
	out, err := fn(tag, scope)
	if err != nil {
		return "", AtOffset(err, tag.Offset)
	}
	return out, nil
}

// RegistryCache holds one lazily built Registry per configuration key. It is
// safe for concurrent use; Clear drops every cached registry.
type RegistryCache struct {
	mu      sync.RWMutex
	entries map[string]*Registry
}

func NewRegistryCache() *RegistryCache {
	return &RegistryCache{entries: make(map[string]*Registry)}
}

// Get returns the registry cached under key, building it with build on the
// first call.
func (c *RegistryCache) Get(key string, build func() *Registry) *Registry {
	c.mu.RLock()
	reg, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return reg
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if reg, ok := c.entries[key]; ok {
		return reg
	}
	reg = build()
	c.entries[key] = reg
	return reg
}

func (c *RegistryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Registry)
	c.mu.Unlock()
}

func (c *RegistryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

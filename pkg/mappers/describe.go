package mappers

import "angles/pkg/engine"

// Info describes one registry entry for listings.
type Info struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "static" or "handler"
	Directive   string `json:"directive,omitempty"`
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
}

// Describe lists the explicit entries of reg in name order.
func Describe(reg *engine.Registry) []Info {
	names := reg.Names()
	list := make([]Info, 0, len(names))
	for _, name := range names {
		m, _ := reg.Lookup(name)
		info := Info{
			Name:        name,
			Kind:        "handler",
			Description: m.Meta.Description,
			Example:     m.Meta.Example,
		}
		if m.IsStatic() {
			info.Kind = "static"
			info.Directive = m.Directive
		}
		list = append(list, info)
	}
	return list
}

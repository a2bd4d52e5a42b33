// Package loader finds template sources for includes and serves transpiled
// templates from a cache.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"angles/pkg/engine"
)

// ErrNotFound is returned when no loader has a template.
var ErrNotFound = errors.New("template not found")

// Loader is implemented by every template source in this package.
type Loader = engine.Loader

// candidates lists the names tried for a template: the name itself, then the
// partial variant with an underscore in front of the base name.
func candidates(name string) []string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return nil
	}
	dir, base := path.Split(name)
	if strings.HasPrefix(base, "_") {
		return []string{name}
	}
	return []string{name, dir + "_" + base}
}

// Chain tries loaders in order.
type Chain []Loader

func (c Chain) Resolve(name string) (string, bool) {
	for _, l := range c {
		if found, ok := l.Resolve(name); ok {
			return found, true
		}
	}
	return "", false
}

func (c Chain) Source(name string) (string, error) {
	var errs []error
	for _, l := range c {
		if _, ok := l.Resolve(name); !ok {
			continue
		}
		src, err := l.Source(name)
		if err == nil {
			return src, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", notFound(name)
	}
	return "", errors.Join(errs...)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

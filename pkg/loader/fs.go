package loader

import (
	"io/fs"
	"os"
	"sort"
	"strings"
)

// FSLoader reads templates from one or more file systems. Earlier roots win.
type FSLoader struct {
	roots []fs.FS
}

func NewFSLoader(roots ...fs.FS) *FSLoader {
	return &FSLoader{roots: roots}
}

// NewDirLoader is NewFSLoader over directories on disk.
func NewDirLoader(dirs ...string) *FSLoader {
	roots := make([]fs.FS, 0, len(dirs))
	for _, dir := range dirs {
		roots = append(roots, os.DirFS(dir))
	}
	return NewFSLoader(roots...)
}

// Resolve returns the first candidate name that exists as a regular file.
func (l *FSLoader) Resolve(name string) (string, bool) {
	for _, c := range candidates(name) {
		if !fs.ValidPath(c) {
			continue
		}
		for _, root := range l.roots {
			if info, err := fs.Stat(root, c); err == nil && !info.IsDir() {
				return c, true
			}
		}
	}
	return "", false
}

func (l *FSLoader) Source(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", notFound(name)
	}
	for _, root := range l.roots {
		data, err := fs.ReadFile(root, name)
		if err == nil {
			return string(data), nil
		}
		if !isNotExist(err) {
			return "", err
		}
	}
	return "", notFound(name)
}

// List returns every template name ending in ext across all roots, sorted
// and without duplicates.
func (l *FSLoader) List(ext string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range l.roots {
		err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ext) {
				seen[p] = true
			}
			return nil
		})
		if err != nil && !isNotExist(err) {
			return nil, err
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

package loader

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/blake2b"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "angles_template_cache_lookups_total",
		Help: "Template cache lookups by result",
	},
	[]string{"result"},
)

// Transpiler is what Cache needs from transpiler.Transpiler.
type Transpiler interface {
	Transpile(name, source string) (string, error)
}

type cachedTemplate struct {
	digest [blake2b.Size256]byte
	output string
}

// Cache serves transpiled templates. An entry is reused while the blake2b
// digest of the source it was built from still matches.
type Cache struct {
	loader     Loader
	transpiler Transpiler
	disabled   bool
	entries    sync.Map // name -> *cachedTemplate
}

// NewCache returns a cache over l. With enabled false every Get transpiles.
func NewCache(l Loader, t Transpiler, enabled bool) *Cache {
	return &Cache{loader: l, transpiler: t, disabled: !enabled}
}

// Get resolves name, loads its source and returns the transpiled output
// along with the canonical name.
func (c *Cache) Get(name string) (string, string, error) {
	canonical, ok := c.loader.Resolve(name)
	if !ok {
		return "", "", notFound(name)
	}

	src, err := c.loader.Source(canonical)
	if err != nil {
		return "", canonical, err
	}
	digest := blake2b.Sum256([]byte(src))

	if !c.disabled {
		if v, ok := c.entries.Load(canonical); ok {
			if entry := v.(*cachedTemplate); entry.digest == digest {
				cacheLookups.WithLabelValues("hit").Inc()
				slog.Debug("template cache hit", "name", canonical)
				return entry.output, canonical, nil
			}
		}
	}
	cacheLookups.WithLabelValues("miss").Inc()

	out, err := c.transpiler.Transpile(canonical, src)
	if err != nil {
		return "", canonical, err
	}

	if !c.disabled {
		c.entries.Store(canonical, &cachedTemplate{digest: digest, output: out})
	}
	return out, canonical, nil
}

// Clear drops every cached template.
// Forget drops the cached output of name.
func (c *Cache) Forget(name string) {
	c.entries.Delete(name)
}

func (c *Cache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

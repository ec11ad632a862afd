// Package sources defines the news-source registry and fetches candidate
// articles from RSS feeds and listing pages.
package sources

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindRSS = "rss"
	KindWeb = "web"
)

// Selectors locate article links on a web listing page.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
}

// Source is one registry entry.
type Source struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Kind      string    `yaml:"kind"`
	URL       string    `yaml:"url"`
	Selectors Selectors `yaml:"selectors"`
	Enabled   *bool     `yaml:"enabled"`
}

// IsEnabled treats a missing enabled flag as true.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is the parsed source registry with normalized ids.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

// NewRegistry builds a registry from already-validated sources. Used when a
// command narrows a loaded registry to a subset.
func NewRegistry(srcs []Source) *Registry {
	reg := &Registry{
		sources: make([]Source, 0, len(srcs)),
		byID:    make(map[string]Source, len(srcs)),
	}
	for _, src := range srcs {
		src.ID = NormalizeID(src.ID)
		if src.ID == "" {
			continue
		}
		if _, dup := reg.byID[src.ID]; dup {
			continue
		}
		reg.sources = append(reg.sources, src)
		reg.byID[src.ID] = src
	}
	return reg
}

// LoadRegistry parses a YAML source registry.
func LoadRegistry(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source registry YAML: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source registry has no sources")
	}

	reg := &Registry{
		sources: make([]Source, 0, len(file.Sources)),
		byID:    make(map[string]Source, len(file.Sources)),
	}
	for i, src := range file.Sources {
		src.ID = NormalizeID(src.ID)
		if src.ID == "" {
			return nil, fmt.Errorf("source %d: missing id", i+1)
		}
		if _, dup := reg.byID[src.ID]; dup {
			return nil, fmt.Errorf("source %s: duplicate id", src.ID)
		}
		if strings.TrimSpace(src.URL) == "" {
			return nil, fmt.Errorf("source %s: missing url", src.ID)
		}
		switch src.Kind {
		case KindRSS:
		case KindWeb:
			if strings.TrimSpace(src.Selectors.Item) == "" || strings.TrimSpace(src.Selectors.Link) == "" {
				return nil, fmt.Errorf("source %s: web source needs item and link selectors", src.ID)
			}
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", src.ID, src.Kind)
		}
		if strings.TrimSpace(src.Name) == "" {
			src.Name = src.ID
		}
		reg.sources = append(reg.sources, src)
		reg.byID[src.ID] = src
	}

	return reg, nil
}

// LoadRegistryFile is LoadRegistry over a file path.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source registry: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

// All returns every registered source in file order.
func (r *Registry) All() []Source {
	return r.sources
}

// Enabled returns the sources eligible for fetching.
func (r *Registry) Enabled() []Source {
	enabled := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		if src.IsEnabled() {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// Lookup finds a source by id. The id is normalized before lookup.
func (r *Registry) Lookup(id string) (Source, bool) {
	src, ok := r.byID[NormalizeID(id)]
	return src, ok
}

// NormalizeID lowercases and trims a source id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Package registry maps source, model and version names to their
// descriptors.
//
// Lookups are case-insensitive. [Static] is the in-memory implementation
// built from the configuration file.
package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/synopackage/pkg/spk"
)

// Source is a package source endpoint.
type Source struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	UserAgent string `json:"userAgent,omitempty"`
	// Legacy sources only answer GET requests with the query in the URL.
	Legacy bool `json:"legacy"`
	// Active sources take part in fan-out searches.
	Active bool `json:"active"`
}

// Model is a NAS model and its CPU architecture.
type Model struct {
	Name string `json:"name"`
	Arch string `json:"arch"`
}

// SourceRegistry resolves source names.
type SourceRegistry interface {
	Source(name string) (Source, bool)
	Sources() []Source
}

// ModelRegistry resolves model names.
type ModelRegistry interface {
	Model(name string) (Model, bool)
	Models() []Model
}

// VersionRegistry resolves DSM version names.
type VersionRegistry interface {
	Version(name string) (spk.Version, bool)
	Versions() []spk.Version
}

// Static is an immutable registry. It is safe for concurrent use.
type Static struct {
	sources  []Source
	models   []Model
	versions []spk.Version

	sourceIdx  map[string]int
	modelIdx   map[string]int
	versionIdx map[string]int
}

// NewStatic builds a registry. Names must be non-empty and unique within
// their kind, ignoring case.
func NewStatic(sources []Source, models []Model, versions []spk.Version) (*Static, error) {
	s := &Static{
		sources:  slices.Clone(sources),
		models:   slices.Clone(models),
		versions: slices.Clone(versions),
	}
	var err error
	if s.sourceIdx, err = index("source", len(sources), func(i int) string { return sources[i].Name }); err != nil {
		return nil, err
	}
	if s.modelIdx, err = index("model", len(models), func(i int) string { return models[i].Name }); err != nil {
		return nil, err
	}
	if s.versionIdx, err = index("version", len(versions), func(i int) string { return versions[i].Name }); err != nil {
		return nil, err
	}
	return s, nil
}

func index(kind string, n int, name func(int) string) (map[string]int, error) {
	idx := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := strings.ToLower(strings.TrimSpace(name(i)))
		if key == "" {
			return nil, fmt.Errorf("%s #%d has no name", kind, i+1)
		}
		if _, dup := idx[key]; dup {
			return nil, fmt.Errorf("duplicate %s %q", kind, name(i))
		}
		idx[key] = i
	}
	return idx, nil
}

func lookup[T any](idx map[string]int, items []T, name string) (T, bool) {
	i, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		var zero T
		return zero, false
	}
	return items[i], true
}

// Source returns the source called name.
func (s *Static) Source(name string) (Source, bool) {
	return lookup(s.sourceIdx, s.sources, name)
}

// Sources returns all sources in configuration order.
func (s *Static) Sources() []Source { return slices.Clone(s.sources) }

// ActiveSources returns the active sources sorted by name.
func (s *Static) ActiveSources() []Source {
	var out []Source
	for _, src := range s.sources {
		if src.Active {
			out = append(out, src)
		}
	}
	slices.SortFunc(out, func(a, b Source) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Model returns the model called name.
func (s *Static) Model(name string) (Model, bool) {
	return lookup(s.modelIdx, s.models, name)
}

// Models returns all models in configuration order.
func (s *Static) Models() []Model { return slices.Clone(s.models) }

// Version returns the version called name.
func (s *Static) Version(name string) (spk.Version, bool) {
	return lookup(s.versionIdx, s.versions, name)
}

// Versions returns all versions in configuration order.
func (s *Static) Versions() []spk.Version { return slices.Clone(s.versions) }

var (
	_ SourceRegistry  = (*Static)(nil)
	_ ModelRegistry   = (*Static)(nil)
	_ VersionRegistry = (*Static)(nil)
)

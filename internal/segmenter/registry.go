package segmenter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// Registry maps segmenter versions to implementations. Old versions
// stay registered so historical segment sets remain reproducible next
// to newer ones.
type Registry struct {
	mu         sync.RWMutex
	segmenters map[string]driven.Segmenter
}

// NewRegistry creates a registry pre-loaded with the built-in
// segmenters.
func NewRegistry() *Registry {
	r := &Registry{segmenters: make(map[string]driven.Segmenter)}
	r.Register(NewV1())
	return r
}

// Register adds a segmenter, replacing any previous one with the same
// version.
func (r *Registry) Register(s driven.Segmenter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segmenters[s.Version()] = s
}

// Get returns the segmenter for a version.
func (r *Registry) Get(version string) (driven.Segmenter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.segmenters[version]
	if !ok {
		return nil, fmt.Errorf("segmenter version %q: %w", version, domain.ErrNotFound)
	}
	return s, nil
}

// Versions returns the registered versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]string, 0, len(r.segmenters))
	for v := range r.segmenters {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

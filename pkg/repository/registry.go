package repository

import (
	"sort"
	"sync"
)

// Model is what the host tool knows about an open model.
type Model struct {
	// File is the model file the model was loaded from.
	File string

	// Name is a display name, optional.
	Name string
}

// Registry answers whether a model backed by a given file is currently open.
// The host tool implements it; the resolver never inspects model internals.
type Registry interface {
	IsOpen(file string) bool
	Get(file string) (Model, bool)
}

// MemoryRegistry is an in-process Registry. It is safe for concurrent use.
type MemoryRegistry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		models: make(map[string]Model),
	}
}

// Open registers model as open. Files are keyed by absolute path, so a
// relative file matches the resolver's model file lookups. Re-opening the same
// file replaces the entry.
func (r *MemoryRegistry) Open(model Model) {
	model.File = absPath(model.File)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model.File] = model
}

// Close removes the model backed by file. Closing an unknown file is a no-op.
func (r *MemoryRegistry) Close(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, absPath(file))
}

// IsOpen reports whether a model backed by file is open.
func (r *MemoryRegistry) IsOpen(file string) bool {
	_, ok := r.Get(file)
	return ok
}

// Get returns the open model backed by file.
func (r *MemoryRegistry) Get(file string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[absPath(file)]
	return m, ok
}

// List returns the files of all open models, sorted.
func (r *MemoryRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]string, 0, len(r.models))
	for file := range r.models {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

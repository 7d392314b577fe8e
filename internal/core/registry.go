package core

import (
	"fmt"
	"sync"
)

// Registry is the process-lifetime store of ready datasets.
// Datasets are inserted once and never updated or removed; contents are lost
// on restart. Construct one per process and inject it where needed.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Dataset
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Dataset)}
}

// Put inserts a dataset. Returns an error if the ID is already registered.
func (r *Registry) Put(d Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("dataset already registered: %s", d.ID)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

// Get returns a dataset by ID or a NotFoundError.
func (r *Registry) Get(id string) (Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return Dataset{}, NotFoundError(id)
	}
	return d, nil
}

// List returns all datasets in insertion order.
func (r *Registry) List() []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Dataset, len(r.order))
	for i, id := range r.order {
		result[i] = r.byID[id]
	}
	return result
}

// Len returns the number of registered datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

package service

import "sync"

// Registry is the authoritative in-memory map of service instances for the
// current process. It performs no I/O; all mutations flow through Upsert and
// Delete, which are internally synchronized. Instances are stored and returned
// by value so callers never share mutable state with the registry.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]Instance
	byIdentity map[string]string // identity -> instance id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]Instance),
		byIdentity: make(map[string]string),
	}
}

// Get returns the instance with the given id.
func (r *Registry) Get(id string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	out := inst
	return &out, true
}

// GetByName returns the instance registered under (kind, name).
func (r *Registry) GetByName(kind Kind, name string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentity[Identity(kind, name)]
	if !ok {
		return nil, false
	}
	inst, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	out := inst
	return &out, true
}

// List returns all instances, optionally filtered by owner. An empty owner
// matches everything. No ordering is guaranteed.
func (r *Registry) List(owner string) []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Instance, 0, len(r.byID))
	for _, inst := range r.byID {
		if owner != "" && inst.Owner != owner {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Upsert inserts or replaces an instance. The (kind, name) pair is unique at
// all times: if a different instance currently holds the same identity, it is
// evicted before the new one is stored.
func (r *Registry) Upsert(inst Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID, ok := r.byIdentity[inst.Identity]; ok && prevID != inst.ID {
		delete(r.byID, prevID)
	}
	r.byID[inst.ID] = inst
	r.byIdentity[inst.Identity] = inst.ID
}

// Delete removes an instance by id. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if r.byIdentity[inst.Identity] == id {
		delete(r.byIdentity, inst.Identity)
	}
}

// Clear removes every instance. Used when discovery is reset.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[string]Instance)
	r.byIdentity = make(map[string]string)
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

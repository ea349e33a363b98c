package collection

import (
	"sort"
	"sync"
)

// Registry holds values under generated ids; Values returns them in registration order.
type Registry[V any] struct {
	mux    sync.RWMutex
	m      map[uint64]V
	nextID uint64
}

// Add registers v and returns a function that removes it; calling remove more than once is harmless.
func (r *Registry[V]) Add(v V) (remove func()) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.nextID++
	id := r.nextID
	r.m[id] = v
	return func() {
		r.mux.Lock()
		defer r.mux.Unlock()
		delete(r.m, id)
	}
}

// Values returns a snapshot; callers may invoke the values without holding the lock.
func (r *Registry[V]) Values() []V {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ids := make([]uint64, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ret := make([]V, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, r.m[id])
	}
	return ret
}

func (r *Registry[V]) Len() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.m)
}

func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{m: make(map[uint64]V)}
}

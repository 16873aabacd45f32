package reconcile

import (
	"github.com/samber/lo"

	"github.com/tessro/ytmdeck/internal/core"
)

type entry struct {
	surface Surface
	reg     core.SurfaceRegistration
}

// Registry tracks active surfaces in registration order. It is not safe for
// concurrent use; the coordinator serializes access.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a surface. It reports whether an existing
// registration with the same ID was replaced.
func (r *Registry) Register(s Surface, reg core.SurfaceRegistration) bool {
	_, exists := r.entries[reg.ID]
	if !exists {
		r.order = append(r.order, reg.ID)
	}
	r.entries[reg.ID] = entry{surface: s, reg: reg}
	return exists
}

// Unregister removes a surface. It reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.order = lo.Without(r.order, id)
	return true
}

// UnregisterDevice removes every surface on device and returns their IDs.
func (r *Registry) UnregisterDevice(device string) []string {
	ids := lo.Filter(r.order, func(id string, _ int) bool {
		return r.entries[id].reg.Device == device
	})
	for _, id := range ids {
		delete(r.entries, id)
	}
	r.order = lo.Without(r.order, ids...)
	return ids
}

// Get returns the surface with id.
func (r *Registry) Get(id string) (Surface, bool) {
	e, ok := r.entries[id]
	return e.surface, ok
}

// List returns surfaces in registration order.
func (r *Registry) List() []Surface {
	return lo.Map(r.order, func(id string, _ int) Surface {
		return r.entries[id].surface
	})
}

// Registrations returns registrations in registration order.
func (r *Registry) Registrations() []core.SurfaceRegistration {
	return lo.Map(r.order, func(id string, _ int) core.SurfaceRegistration {
		return r.entries[id].reg
	})
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	return len(r.order)
}

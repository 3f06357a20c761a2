// Package registry is the append-only id -> order lookup shared by a
// single matching core. Every order ever admitted stays reachable here
// for the lifetime of the core, even once filled or cancelled.
package registry

import "lobex/internal/common"

// Registry hands out monotonically increasing ids starting at 1 — id 0
// is reserved as the "no order"/rejection sentinel — and never deletes
// an installed record.
type Registry struct {
	orders map[uint64]*common.Order
	nextID uint64
}

func New() *Registry {
	return &Registry{orders: make(map[uint64]*common.Order)}
}

// Allocate returns the next unused id. It does not install anything.
func (r *Registry) Allocate() uint64 {
	r.nextID++
	return r.nextID
}

// Install makes order reachable by its own ID. Callers must have
// allocated that ID via Allocate first.
func (r *Registry) Install(order *common.Order) {
	r.orders[order.ID] = order
}

// Get looks up an order by id.
func (r *Registry) Get(id uint64) (*common.Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// ByStatus returns every order currently in the given status. Order of
// results is unspecified.
func (r *Registry) ByStatus(status common.Status) []*common.Order {
	var out []*common.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the total number of orders ever admitted.
func (r *Registry) Len() int {
	return len(r.orders)
}

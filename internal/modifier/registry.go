package modifier

// Registry maps modifier ids to definitions. It is populated once at load
// time and read-only afterwards, so it may be shared by any number of
// resolvers without locking.
//
// Registration order is preserved: All and ByRarity iterate in the order
// definitions were first registered. Draft shuffles depend on that order
// being stable, which a bare map range would not give.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, overwriting any previous one with the same
// id. Duplicate rejection is the validator's job, upstream of here.
func (r *Registry) Register(def *Definition) {
	if _, exists := r.defs[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.defs[def.ID] = def
}

func (r *Registry) RegisterAll(defs []*Definition) {
	for _, def := range defs {
		r.Register(def)
	}
}

// Get looks up a definition. Absent ids return ok=false, never an error:
// resolution treats instances with missing definitions as inert.
func (r *Registry) Get(id string) (*Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// All returns definitions in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

// ByRarity returns definitions of one rarity in registration order.
func (r *Registry) ByRarity(rarity Rarity) []*Definition {
	var out []*Definition
	for _, id := range r.order {
		if def := r.defs[id]; def.Rarity == rarity {
			out = append(out, def)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.defs) }

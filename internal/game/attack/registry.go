package attack

import "fmt"

// Registry indexes attack strategies by type tag.
//
// Invariant: each tag is registered at most once.
type Registry struct {
	attacks map[Type]Attack
	order   []Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{attacks: make(map[Type]Attack)}
}

// DefaultRegistry returns a Registry holding the built-in attack types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []Attack{
		PowerAttack{}, SkillAttack{}, SpeedAttack{}, ShadowAttack{}, TripAttack{},
		PassAttack{}, SurrenderAttack{},
	} {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register stores a under its type tag.
//
// Precondition: a must not be nil.
// Postcondition: returns error on tag collision.
func (r *Registry) Register(a Attack) error {
	t := a.Type()
	if t == "" {
		return fmt.Errorf("attack.Registry: empty attack type")
	}
	if _, exists := r.attacks[t]; exists {
		return fmt.Errorf("attack.Registry: attack type %q already registered", t)
	}
	r.attacks[t] = a
	r.order = append(r.order, t)
	return nil
}

// Get returns the strategy for t, or false if not registered.
func (r *Registry) Get(t Type) (Attack, bool) {
	a, ok := r.attacks[t]
	return a, ok
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []Type {
	return append([]Type(nil), r.order...)
}

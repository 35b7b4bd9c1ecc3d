package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotResolved is returned by read accessors before Resolve has run
	ErrNotResolved = errors.New("schema: registry not resolved")
	// ErrResolved is returned by Register after Resolve has run
	ErrResolved = errors.New("schema: registry already resolved")
	// ErrUnknownEntity is returned for names that were never registered
	ErrUnknownEntity = errors.New("schema: unknown entity")
	// ErrUnknownAssociation is returned for aliases an entity never declared
	ErrUnknownAssociation = errors.New("schema: unknown association")
)

// Registry holds every entity descriptor. It is built in two phases:
// Register all descriptors, then Resolve associations once. After Resolve it is read-only.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	order       []string
	dependents  map[string][]Dependent
	resolved    bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		dependents:  make(map[string][]Dependent),
	}
}

// Register adds descriptors. Duplicate names and registration after Resolve fail.
func (r *Registry) Register(descriptors ...*Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return ErrResolved
	}
	for _, d := range descriptors {
		if d == nil || d.Name == "" {
			return errors.New("schema: descriptor without a name")
		}
		if _, exists := r.descriptors[d.Name]; exists {
			return fmt.Errorf("schema: entity %q registered twice", d.Name)
		}
		if d.Table == "" {
			return fmt.Errorf("schema: entity %q has no table", d.Name)
		}
		d.Effective()
		r.descriptors[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return nil
}

// lookupFunc adapts the unresolved descriptor map for declare functions
type lookupFunc func(name string) (*Descriptor, bool)

func (f lookupFunc) Lookup(name string) (*Descriptor, bool) { return f(name) }

// Resolve runs every descriptor's Associate function against the full set and
// builds the inbound dependency index.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return ErrResolved
	}

	lookup := lookupFunc(func(name string) (*Descriptor, bool) {
		d, ok := r.descriptors[name]
		return d, ok
	})

	resolved := make(map[string][]Association, len(r.descriptors))
	dependents := make(map[string][]Dependent)
	for _, name := range r.order {
		d := r.descriptors[name]
		if d.Associate == nil {
			continue
		}
		assocs, err := d.Associate(lookup)
		if err != nil {
			return fmt.Errorf("schema: resolving %s: %w", name, err)
		}
		seen := make(map[string]bool, len(assocs))
		for i := range assocs {
			a := &assocs[i]
			if _, ok := r.descriptors[a.Target]; !ok {
				return fmt.Errorf("schema: %s.%s targets %q: %w", name, a.Alias, a.Target, ErrUnknownEntity)
			}
			if !d.HasField(a.ForeignKey) {
				return fmt.Errorf("schema: %s.%s uses undeclared foreign key %q", name, a.Alias, a.ForeignKey)
			}
			if seen[a.Alias] {
				return fmt.Errorf("schema: %s declares alias %q twice", name, a.Alias)
			}
			if a.Required && a.RequiredMessage == "" {
				a.RequiredMessage = fmt.Sprintf("%s:%s-error-required", name, a.Alias)
			}
			seen[a.Alias] = true
			dependents[a.Target] = append(dependents[a.Target], Dependent{Owner: d, Association: *a})
		}
		resolved[name] = assocs
	}

	for name, assocs := range resolved {
		r.descriptors[name].associations = assocs
	}
	r.dependents = dependents
	r.resolved = true
	return nil
}

// Lookup returns a descriptor by entity name
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.resolved {
		return nil, ErrNotResolved
	}
	d, ok := r.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return d, nil
}

// MustLookup is Lookup for wiring code where a miss is a programming error
func (r *Registry) MustLookup(name string) *Descriptor {
	d, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Associations returns the outbound associations of an entity
func (r *Registry) Associations(entity string) ([]Association, error) {
	d, err := r.Lookup(entity)
	if err != nil {
		return nil, err
	}
	return append([]Association(nil), d.associations...), nil
}

// Association returns an entity's association by alias
func (r *Registry) Association(entity, alias string) (Association, error) {
	assocs, err := r.Associations(entity)
	if err != nil {
		return Association{}, err
	}
	for _, a := range assocs {
		if a.Alias == alias {
			return a, nil
		}
	}
	return Association{}, fmt.Errorf("%w: %s.%s", ErrUnknownAssociation, entity, alias)
}

// Dependents returns the inbound associations that reference entity
func (r *Registry) Dependents(entity string) ([]Dependent, error) {
	if _, err := r.Lookup(entity); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Dependent(nil), r.dependents[entity]...), nil
}

// Names returns the registered entity names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Resolved reports whether phase two has run
func (r *Registry) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

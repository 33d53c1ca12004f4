package dbcontext

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type constructor func(opts *Options) (Context, error)

// Registry maps context types to their constructors.
// Callers own the registry and pass it to whatever creates contexts.
type Registry struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[reflect.Type]constructor)}
}

// Register installs ctor as the constructor for contexts of type T.
// A later registration for the same type replaces the earlier one.
//
// Example:
//
//	dbcontext.Register(reg, func(o *dbcontext.Options) (*ShopContext, error) {
//	    base, err := dbcontext.New(o)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &ShopContext{DbContext: base}, nil
//	})
func Register[T Context](r *Registry, ctor func(opts *Options) (T, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[reflect.TypeFor[T]()] = func(opts *Options) (Context, error) {
		return ctor(opts)
	}
}

// Unregister removes the constructor for T.
func Unregister[T Context](r *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ctors, reflect.TypeFor[T]())
}

// IsRegistered reports whether a constructor for T exists.
func IsRegistered[T Context](r *Registry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[reflect.TypeFor[T]()]
	return ok
}

// Registered returns the registered type names, sorted.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// Construct builds a context of type T from opts.
// It returns ErrConstruction if T has no constructor or the constructor fails.
func Construct[T Context](r *Registry, opts *Options) (T, error) {
	var zero T
	typ := reflect.TypeFor[T]()

	r.mu.RLock()
	ctor, ok := r.ctors[typ]
	r.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: no constructor registered for %s (available: %v)",
			ErrConstruction, typ, r.Registered())
	}

	c, err := ctor(opts)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrConstruction, typ, err)
	}
	t, _ := c.(T)
	return t, nil
}

package modinject

import (
	"fmt"
	"reflect"
)

// declaration collects the options passed to one of the Declare calls.
type declaration struct {
	store   *Store
	md      ClassMetadata
	pending []func()
}

// DeclareOption configures a declaration. Options that do not apply to the kind being
// declared are recorded anyway and ignored by the resolver.
type DeclareOption func(*declaration)

// Imports adds modules whose exports become visible to the declaring module.
func Imports(modules ...reflect.Type) DeclareOption {
	return func(d *declaration) {
		d.md.Imports = append(d.md.Imports, modules...)
	}
}

// Providers lists provider types declared by the module. The providers themselves must be
// declared with DeclareProvider.
func Providers(providers ...reflect.Type) DeclareOption {
	return func(d *declaration) {
		d.md.Providers = append(d.md.Providers, providers...)
	}
}

// Provide declares ctor as a provider in the same store and lists its result type as one of
// the module's providers.
func Provide(ctor any, opts ...DeclareOption) DeclareOption {
	t := providerType(ctor)
	return func(d *declaration) {
		d.md.Providers = append(d.md.Providers, t)
		store := d.store
		d.pending = append(d.pending, func() {
			store.DeclareProvider(ctor, opts...)
		})
	}
}

// Exports makes providers, or whole imported modules, visible to importers of the module.
func Exports(types ...reflect.Type) DeclareOption {
	return func(d *declaration) {
		d.md.Exports = append(d.md.Exports, types...)
	}
}

// Global marks a module (all of its providers) or a single provider as visible from every
// module of a graph it is part of.
func Global() DeclareOption {
	return func(d *declaration) {
		d.md.Global = true
	}
}

// Intercept appends interceptors. They run in the order given.
func Intercept(interceptors ...Interceptor) DeclareOption {
	return func(d *declaration) {
		d.md.Interceptors = append(d.md.Interceptors, interceptors...)
	}
}

// Needs lists the providers a component looks up when it renders.
func Needs(types ...reflect.Type) DeclareOption {
	return func(d *declaration) {
		d.md.Dependencies = append(d.md.Dependencies, types...)
	}
}

func (s *Store) declare(t reflect.Type, kind Kind, opts []DeclareOption, setup func(*declaration)) {
	d := &declaration{
		store: s,
		md:    ClassMetadata{Kind: kind},
	}
	if setup != nil {
		setup(d)
	}
	for _, opt := range opts {
		opt(d)
	}
	s.Record(t, d.md)
	for _, p := range d.pending {
		p()
	}
}

// DeclareModule records a module.
func (s *Store) DeclareModule(t reflect.Type, opts ...DeclareOption) {
	s.declare(t, KindModule, opts, nil)
}

// DeclareProvider records ctor as the constructor for its result type and returns that type.
// The constructor's parameters are the provider's dependencies, in order. A parameter of type
// context.Context receives the resolution context and an Optional[T] parameter is filled only
// when T is visible.
//
// This panics if ctor is not a function returning a value and an optional error.
func (s *Store) DeclareProvider(ctor any, opts ...DeclareOption) reflect.Type {
	info, err := getConstructorInfo(reflect.TypeOf(ctor))
	if err != nil {
		panic(err.Error())
	}
	s.declare(info.resultType, KindProvider, opts, func(d *declaration) {
		d.md.Constructor = ctor
		d.md.Dependencies = append(d.md.Dependencies, info.params...)
	})
	return info.resultType
}

// DeclareComponent records a component type. Components are not constructed by the
// container; see BindComponent.
func (s *Store) DeclareComponent(t reflect.Type, opts ...DeclareOption) {
	s.declare(t, KindComponent, opts, nil)
}

// DeclareModule records a module in DefaultStore.
func DeclareModule(t reflect.Type, opts ...DeclareOption) {
	DefaultStore.DeclareModule(t, opts...)
}

// DeclareProvider records a provider in DefaultStore.
func DeclareProvider(ctor any, opts ...DeclareOption) reflect.Type {
	return DefaultStore.DeclareProvider(ctor, opts...)
}

// DeclareComponent records a component in DefaultStore.
func DeclareComponent(t reflect.Type, opts ...DeclareOption) {
	DefaultStore.DeclareComponent(t, opts...)
}

func providerType(ctor any) reflect.Type {
	info, err := getConstructorInfo(reflect.TypeOf(ctor))
	if err != nil {
		panic(fmt.Sprintf("Provide: %v", err))
	}
	return info.resultType
}

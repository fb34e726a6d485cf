package modinject

import "reflect"

// WithOverrides supplies ready-made instances that take the place of providers of the same
// type everywhere in the container, regardless of visibility. Each value is keyed by its
// dynamic type; use OverrideAs to key a value by an interface type. This is mostly useful
// for substituting fakes in tests.
func WithOverrides(values ...any) ContainerOption {
	return func(c *Container) {
		for _, v := range values {
			if v == nil {
				panic("WithOverrides: untyped nil override")
			}
			c.overrides[reflect.TypeOf(v)] = v
		}
	}
}

// OverrideAs overrides the provider of type T with v.
func OverrideAs[T any](v T) ContainerOption {
	return func(c *Container) {
		c.overrides[TypeOf[T]()] = v
	}
}

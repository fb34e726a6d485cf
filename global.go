package modinject

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type TimingMode int

const (
	// TimingDisable turns timing off.
	TimingDisable TimingMode = iota

	// TimingImmediate times the Immediate phase of NewContainer as a whole.
	TimingImmediate

	// TimingConstructors additionally times every provider constructor. Nested constructions
	// show up nested, which makes it easy to see where bootstrap time goes.
	TimingConstructors
)

// EnableTiming is the timing mode of containers created without WithTiming.
var EnableTiming = TimingDisable

// ContainerOption is a functional option for NewContainer.
type ContainerOption func(*Container)

// WithStore builds the container from s instead of DefaultStore.
func WithStore(s *Store) ContainerOption {
	return func(c *Container) {
		c.store = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTiming sets the timing mode for this container. Timings are recorded into the
// go-timing context passed to NewContainer or Get.
func WithTiming(mode TimingMode) ContainerOption {
	return func(c *Container) {
		c.timing = mode
	}
}

// WithMetrics reports instantiations and failed lookups to m.
func WithMetrics(m *Metrics) ContainerOption {
	return func(c *Container) {
		c.metrics = m
	}
}

// WithVerify makes NewContainer run Verify and fail if the graph has problems.
func WithVerify() ContainerOption {
	return func(c *Container) {
		c.verify = true
	}
}

// Getter is the lookup surface shared by Container and the View handed to components.
type Getter interface {
	Get(ctx context.Context, t reflect.Type) (any, error)
}

// Get returns the instance of type T. It panics if T cannot be resolved; use GetWithError
// when failure is expected.
func Get[T any](ctx context.Context, g Getter) T {
	v, err := GetWithError[T](ctx, g)
	if err != nil {
		panic(err)
	}
	return v
}

// GetWithError returns the instance of type T or the reason it could not be resolved.
func GetWithError[T any](ctx context.Context, g Getter) (T, error) {
	var target T
	t := TypeOf[T]()
	v, err := g.Get(ctx, t)
	if err != nil {
		return target, err
	}
	if v == nil {
		return target, nil
	}
	target, ok := v.(T)
	if !ok {
		return target, &DependencyError{
			Kind:           ErrTypeMismatch,
			Message:        fmt.Sprintf("resolved value has type %T", v),
			ReferencedType: t,
		}
	}
	return target, nil
}

// GetOptional returns the instance of type T and true, or the zero value and false if T is
// unknown or not visible from the root module. Any other failure panics, like Get.
func GetOptional[T any](ctx context.Context, g Getter) (T, bool) {
	v, err := GetWithError[T](ctx, g)
	if err != nil {
		if isAbsent(err) {
			return v, false
		}
		panic(err)
	}
	return v, true
}

// Fill resolves every target, each a pointer to a variable of the wanted type, stopping at
// the first failure.
//
//	var bar *BarService
//	var log Logger
//	err := modinject.Fill(ctx, c, &bar, &log)
func Fill(ctx context.Context, g Getter, targets ...any) error {
	for _, target := range targets {
		tv := reflect.ValueOf(target)
		if tv.Kind() != reflect.Pointer || tv.IsNil() {
			panic(fmt.Sprintf("Fill target must be a non-nil pointer, got %T", target))
		}
		t := tv.Type().Elem()
		v, err := g.Get(ctx, t)
		if err != nil {
			return err
		}
		if v == nil {
			tv.Elem().Set(reflect.Zero(t))
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(t) {
			return &DependencyError{
				Kind:           ErrTypeMismatch,
				Message:        fmt.Sprintf("resolved value has type %T", v),
				ReferencedType: t,
			}
		}
		tv.Elem().Set(rv)
	}
	return nil
}

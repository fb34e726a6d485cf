package modinject

import (
	"context"
	"reflect"
)

// Interceptor observes or replaces a freshly constructed provider instance, or the output
// of a rendered component. An interceptor on a provider must return a value assignable to
// the provider type.
type Interceptor func(ctx context.Context, target any) (any, error)

// applyInterceptors runs the chain in order, each interceptor receiving the previous result.
// Errors from interceptors are returned as is.
func applyInterceptors(ctx context.Context, interceptors []Interceptor, target any) (any, error) {
	for _, interceptor := range interceptors {
		if interceptor == nil {
			continue
		}
		next, err := interceptor(ctx, target)
		if err != nil {
			return nil, err
		}
		target = next
	}
	return target, nil
}

// interceptProvider applies a provider's interceptors and checks the result still satisfies
// the provider type.
func interceptProvider(ctx context.Context, md *ClassMetadata, module reflect.Type, instance any) (any, error) {
	if len(md.Interceptors) == 0 {
		return instance, nil
	}
	result, err := applyInterceptors(ctx, md.Interceptors, instance)
	if err != nil {
		return nil, err
	}
	if !assignable(result, md.Type) {
		return nil, &DependencyError{
			Kind:           ErrInvalidInterceptor,
			Message:        "interceptor returned " + typeName(result),
			ReferencedType: md.Type,
			Module:         module,
		}
	}
	return result, nil
}

// assignable reports whether v can be stored in a variable of type t. A nil value is only
// assignable to types that can be nil.
func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

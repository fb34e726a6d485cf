package modinject

import (
	"context"
	"reflect"
)

// Optional is a constructor parameter that is filled when T is visible to the provider's
// module and left empty otherwise:
//
//	func NewReporter(log Optional[*AuditLog]) *Reporter {
//	    if log.Found {
//	        ...
//	    }
//	}
//
// Only absence is tolerated. If T is visible but fails to construct, so does the provider
// that asked for it.
type Optional[T any] struct {
	Value T
	Found bool
}

func (Optional[T]) optionalType() reflect.Type {
	return TypeOf[T]()
}

func (o *Optional[T]) setOptional(v any) {
	if v != nil {
		o.Value = v.(T)
	}
	o.Found = true
}

// optionalMarker is implemented by every Optional[T].
type optionalMarker interface {
	optionalType() reflect.Type
}

type optionalSetter interface {
	setOptional(v any)
}

// resolveOptional builds the Optional[T] value for an optional parameter of type optType.
func (c *Container) resolveOptional(ctx context.Context, owner *moduleNode, optType, target reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(optType)
	v, err := c.resolveFrom(ctx, owner, target)
	if err != nil {
		if isAbsent(err) {
			return ptr.Elem(), nil
		}
		return reflect.Value{}, err
	}
	ptr.Interface().(optionalSetter).setOptional(v)
	return ptr.Elem(), nil
}

package modinject

import (
	"fmt"
	"reflect"
	"sync"
)

// constructorInfo caches the reflection work needed to call a constructor.
type constructorInfo struct {
	params     []reflect.Type
	resultType reflect.Type
	hasError   bool
}

// Global cache of constructor shapes keyed by function type.
var globalConstructorCache sync.Map // map[reflect.Type]*constructorInfo

// getConstructorInfo analyses a constructor's function type. A constructor returns either
// a single value or a value and an error; anything else is an error.
func getConstructorInfo(fnType reflect.Type) (*constructorInfo, error) {
	if cached, ok := globalConstructorCache.Load(fnType); ok {
		return cached.(*constructorInfo), nil
	}

	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("constructor must not be variadic: %v", fnType)
	}

	info := &constructorInfo{
		params: make([]reflect.Type, fnType.NumIn()),
	}
	for i := 0; i < fnType.NumIn(); i++ {
		info.params[i] = fnType.In(i)
	}

	switch fnType.NumOut() {
	case 1:
		info.resultType = fnType.Out(0)
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("second constructor result must be error: %v", fnType)
		}
		info.resultType = fnType.Out(0)
		info.hasError = true
	default:
		return nil, fmt.Errorf("constructor must return a value and an optional error: %v", fnType)
	}
	if info.resultType == errorType {
		return nil, fmt.Errorf("constructor must return a value besides error: %v", fnType)
	}

	actual, _ := globalConstructorCache.LoadOrStore(fnType, info)
	return actual.(*constructorInfo), nil
}

// optionalTargets caches which parameter types are Optional[T] wrappers and what T is.
var optionalTargets sync.Map // map[reflect.Type]reflect.Type (nil for non-optional)

var optionalMarkerType = TypeOf[optionalMarker]()

func optionalTarget(t reflect.Type) (reflect.Type, bool) {
	if cached, ok := optionalTargets.Load(t); ok {
		target, _ := cached.(reflect.Type)
		return target, target != nil
	}
	var target reflect.Type
	if t.Kind() == reflect.Struct && t.Implements(optionalMarkerType) {
		target = reflect.Zero(t).Interface().(optionalMarker).optionalType()
	}
	actual, _ := optionalTargets.LoadOrStore(t, target)
	target, _ = actual.(reflect.Type)
	return target, target != nil
}

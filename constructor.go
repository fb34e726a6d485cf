package modinject

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/gburgyan/go-timing"
)

// construct resolves md's dependencies and calls its constructor.
func (c *Container) construct(ctx context.Context, owner *moduleNode, md *ClassMetadata) (any, error) {
	if md.Constructor == nil {
		return nil, &DependencyError{
			Kind:           ErrConstruction,
			Message:        "provider has no constructor",
			ReferencedType: md.Type,
			Module:         owner.moduleType(),
		}
	}
	info, err := getConstructorInfo(reflect.TypeOf(md.Constructor))
	if err != nil {
		return nil, &DependencyError{
			Kind:           ErrConstruction,
			Message:        "invalid constructor",
			ReferencedType: md.Type,
			Module:         owner.moduleType(),
			SourceError:    err,
		}
	}
	if err := checkDependencies(info, md); err != nil {
		return nil, &DependencyError{
			Kind:           ErrConstruction,
			Message:        "dependencies do not match constructor",
			ReferencedType: md.Type,
			Module:         owner.moduleType(),
			SourceError:    err,
		}
	}

	if c.timing == TimingConstructors {
		timingCtx, complete := timing.Start(ctx, md.Type.String())
		defer complete()
		ctx = timingCtx
	}

	args, err := c.resolveArgs(ctx, owner, md)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := reflect.ValueOf(md.Constructor).Call(args)
	c.metrics.observeConstruction(time.Since(start))

	if info.hasError && !results[1].IsNil() {
		return nil, &DependencyError{
			Kind:           ErrConstruction,
			Message:        "constructor returned an error",
			ReferencedType: md.Type,
			Module:         owner.moduleType(),
			SourceError:    results[1].Interface().(error),
		}
	}
	return results[0].Interface(), nil
}

// checkDependencies makes sure a recorded dependency list can be passed to the constructor.
// Lists produced by DeclareProvider always match; hand-recorded metadata might not.
func checkDependencies(info *constructorInfo, md *ClassMetadata) error {
	if len(info.params) != len(md.Dependencies) {
		return fmt.Errorf("constructor takes %d parameters, %d dependencies declared", len(info.params), len(md.Dependencies))
	}
	for i, dep := range md.Dependencies {
		if !dep.AssignableTo(info.params[i]) {
			return fmt.Errorf("dependency %d is %v, constructor expects %v", i, dep, info.params[i])
		}
	}
	if !info.resultType.AssignableTo(md.Type) {
		return fmt.Errorf("constructor returns %v", info.resultType)
	}
	return nil
}

package modinject

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/multierr"
)

// Validate registers a bootstrap validator. The validator is a function whose parameters
// are resolved from the root module (a context.Context parameter receives the bootstrap
// context) and which returns an error. Validators run in order at the end of NewContainer;
// the first error is returned from NewContainer as is.
//
//	c, err := modinject.NewContainer(ctx, modinject.TypeOf[AppModule](),
//	    modinject.Validate(func(cfg *Config) error {
//	        if cfg.BaseURL == "" {
//	            return errors.New("base url required")
//	        }
//	        return nil
//	    }),
//	)
func Validate(validator any) ContainerOption {
	vType := reflect.TypeOf(validator)
	if vType == nil || vType.Kind() != reflect.Func {
		panic(fmt.Sprintf("Validate argument must be a function, got %v", vType))
	}
	if vType.NumOut() != 1 || vType.Out(0) != errorType {
		panic(fmt.Sprintf("validator must return exactly one error, got %v", vType))
	}
	if vType.NumIn() == 0 {
		panic("validator must have at least one parameter")
	}

	vw := &validatorWrapper{fn: validator}
	return func(c *Container) {
		c.validators = append(c.validators, vw)
	}
}

// validatorWrapper wraps a validator function
type validatorWrapper struct {
	fn any
}

// runValidators executes all registered validators in order.
func (c *Container) runValidators(ctx context.Context) error {
	for _, vw := range c.validators {
		if err := c.runValidator(ctx, vw); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) runValidator(ctx context.Context, vw *validatorWrapper) error {
	fnType := reflect.TypeOf(vw.fn)
	params := make([]reflect.Value, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)
		if paramType == contextType {
			params[i] = reflect.ValueOf(ctx)
			continue
		}
		v, err := c.Get(ctx, paramType)
		if err != nil {
			return fmt.Errorf("validator dependency resolution failed for type %v: %w", paramType, err)
		}
		if v == nil {
			params[i] = reflect.Zero(paramType)
		} else {
			params[i] = reflect.ValueOf(v)
		}
	}

	results := reflect.ValueOf(vw.fn).Call(params)
	if !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}

// Verify checks the whole graph without constructing anything: every provider declared by
// a module must have provider metadata and a usable constructor, every dependency must be
// visible from the declaring module, every export must be something the module provides
// or imports, and no provider may depend on itself. All problems are reported together.
func (c *Container) Verify() error {
	v := &verifier{
		c:       c,
		done:    map[scopeKey]bool{},
		active:  map[frame]bool{},
		reports: map[string]bool{},
	}
	for _, node := range c.graph.order {
		for _, p := range node.md.Providers {
			if _, ok := c.overrides[p]; ok {
				continue
			}
			loc, err := c.locate(node, p)
			if err != nil {
				v.report(err)
				continue
			}
			v.walk(loc)
		}
		for _, e := range node.md.Exports {
			v.checkExport(node, e)
		}
	}
	return v.err
}

type verifier struct {
	c       *Container
	done    map[scopeKey]bool
	active  map[frame]bool
	stack   []reflect.Type
	reports map[string]bool
	err     error
}

// report adds err once; the same broken edge is usually reached from several places.
func (v *verifier) report(err error) {
	msg := err.Error()
	if v.reports[msg] {
		return
	}
	v.reports[msg] = true
	v.err = multierr.Append(v.err, err)
}

// walk visits loc and everything it depends on, the same way instantiate would.
func (v *verifier) walk(loc location) {
	key := loc.key()
	if v.done[key] {
		return
	}
	md := loc.md
	f := frame{module: loc.owner, target: md.Type}
	if v.active[f] {
		chain := []reflect.Type{}
		for i := len(v.stack) - 1; i >= 0; i-- {
			if v.stack[i] == md.Type {
				chain = append(chain, v.stack[i:]...)
				break
			}
		}
		v.report(&DependencyError{
			Kind:           ErrCircularDependency,
			Message:        "cyclic dependency between providers",
			ReferencedType: md.Type,
			Module:         loc.owner.moduleType(),
			Chain:          append(chain, md.Type),
		})
		return
	}
	v.active[f] = true
	v.stack = append(v.stack, md.Type)
	defer func() {
		delete(v.active, f)
		v.stack = v.stack[:len(v.stack)-1]
		v.done[key] = true
	}()

	info, err := getConstructorInfo(reflect.TypeOf(md.Constructor))
	if err == nil {
		err = checkDependencies(info, md)
	}
	if err != nil {
		v.report(&DependencyError{
			Kind:           ErrConstruction,
			Message:        "invalid constructor",
			ReferencedType: md.Type,
			Module:         loc.owner.moduleType(),
			SourceError:    err,
		})
		return
	}

	for _, dep := range md.Dependencies {
		if dep == contextType {
			continue
		}
		optional := false
		if target, ok := optionalTarget(dep); ok {
			dep = target
			optional = true
		}
		if _, ok := v.c.overrides[dep]; ok {
			continue
		}
		depLoc, err := v.c.locate(loc.owner, dep)
		if err != nil {
			if !optional || !isAbsent(err) {
				v.report(err)
			}
			continue
		}
		v.walk(depLoc)
	}
}

// checkExport reports an export that the module neither provides, imports as a module, nor
// receives from one of its imports.
func (v *verifier) checkExport(node *moduleNode, e reflect.Type) {
	if node.providers[e] || node.importNode(e) != nil {
		return
	}
	visited := map[*moduleNode]bool{node: true}
	for _, imp := range node.imports {
		if exportedBy(imp, e, visited) != nil {
			return
		}
	}
	v.report(&DependencyError{
		Kind:           ErrProviderNotVisible,
		Message:        "module exports a type it neither provides nor imports",
		ReferencedType: e,
		Module:         node.moduleType(),
	})
}

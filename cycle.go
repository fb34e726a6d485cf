package modinject

import (
	"context"
	"reflect"
)

type cycle int

const cycleKey cycle = 0

// frame is one in-progress construction: a provider being built for a module scope.
type frame struct {
	module *moduleNode
	target reflect.Type
}

// framePath is the chain of constructions leading to the current one, innermost first. It
// travels in the context so re-entrant lookups made from constructors extend it. Entries are
// never modified, so lookups fanned out to goroutines each extend their own path.
type framePath struct {
	parent *framePath
	frame  frame
}

func (p *framePath) contains(f frame) bool {
	for e := p; e != nil; e = e.parent {
		if e.frame == f {
			return true
		}
	}
	return false
}

// chainFrom lists the types from the outermost occurrence of f to the innermost frame,
// closed with f again.
func (p *framePath) chainFrom(f frame) []reflect.Type {
	var frames []frame
	for e := p; e != nil; e = e.parent {
		frames = append(frames, e.frame)
	}
	start := len(frames) - 1
	for start >= 0 && frames[start] != f {
		start--
	}
	var chain []reflect.Type
	for i := start; i >= 0; i-- {
		chain = append(chain, frames[i].target)
	}
	return append(chain, f.target)
}

// enterFrame returns a context whose path ends in f, failing if f is already on the path.
func (c *Container) enterFrame(ctx context.Context, f frame) (context.Context, error) {
	path, _ := ctx.Value(cycleKey).(*framePath)
	if path.contains(f) {
		return nil, &DependencyError{
			Kind:           ErrCircularDependency,
			Message:        "cyclic dependency resolving provider",
			ReferencedType: f.target,
			Module:         f.module.moduleType(),
			Chain:          path.chainFrom(f),
			Status:         c.Status(),
		}
	}
	return context.WithValue(ctx, cycleKey, &framePath{parent: path, frame: f}), nil
}

package modinject

import (
	"context"
	"errors"
	"reflect"

	"go.uber.org/zap"
)

// scopeKey identifies one singleton slot. Global providers use a nil module.
type scopeKey struct {
	module *moduleNode
	target reflect.Type
}

// location is where a visible provider lives. Its dependencies resolve from owner.
type location struct {
	owner  *moduleNode
	global bool
	md     *ClassMetadata
}

func (l location) key() scopeKey {
	if l.global {
		return scopeKey{target: l.md.Type}
	}
	return scopeKey{module: l.owner, target: l.md.Type}
}

// resolveFrom resolves t as requested by module node.
func (c *Container) resolveFrom(ctx context.Context, node *moduleNode, t reflect.Type) (any, error) {
	if c.closed.Load() {
		return nil, &DependencyError{
			Kind:           ErrClosed,
			Message:        "container is closed",
			ReferencedType: t,
		}
	}
	if v, ok := c.overrides[t]; ok {
		return v, nil
	}

	loc, err := c.locate(node, t)
	if err != nil {
		return nil, err
	}
	return c.instantiate(ctx, loc)
}

// providerMetadata returns t's metadata if t is a declared provider.
func (c *Container) providerMetadata(node *moduleNode, t reflect.Type) (*ClassMetadata, error) {
	md, ok := c.store.Lookup(t)
	if !ok {
		return nil, &DependencyError{
			Kind:           ErrUnknownProvider,
			Message:        "no metadata declared",
			ReferencedType: t,
			Module:         node.moduleType(),
		}
	}
	if md.Kind != KindProvider {
		return nil, &DependencyError{
			Kind:           ErrUnknownProvider,
			Message:        "declared as " + md.Kind.String() + ", not a provider",
			ReferencedType: t,
			Module:         node.moduleType(),
		}
	}
	return md, nil
}

// locate applies the visibility rules for t from node, in order: declared by node, global
// in the graph, exported by one of node's imports.
func (c *Container) locate(node *moduleNode, t reflect.Type) (location, error) {
	md, err := c.providerMetadata(node, t)
	if err != nil {
		return location{}, err
	}

	if node.providers[t] {
		if owner, ok := c.globalOwner(node, t, md); ok {
			return location{owner: owner, global: true, md: md}, nil
		}
		return location{owner: node, md: md}, nil
	}
	if owner, ok := c.graph.globals[t]; ok {
		return location{owner: owner, global: true, md: md}, nil
	}
	visited := map[*moduleNode]bool{}
	for _, imp := range node.imports {
		if owner := exportedBy(imp, t, visited); owner != nil {
			return location{owner: owner, md: md}, nil
		}
	}

	return location{}, &DependencyError{
		Kind:           ErrProviderNotVisible,
		Message:        "provider is not declared, global, or exported by an import",
		ReferencedType: t,
		Module:         node.moduleType(),
	}
}

// globalOwner returns the owner of t when node declares t as a global provider. Every
// global declaration of t shares the owner's instance.
func (c *Container) globalOwner(node *moduleNode, t reflect.Type, md *ClassMetadata) (*moduleNode, bool) {
	if !node.md.Global && !md.Global {
		return nil, false
	}
	owner, ok := c.graph.globals[t]
	return owner, ok
}

// exportedBy returns the module that ends up providing t when n makes it visible to its
// importers, either by exporting t or by exporting an imported module that does. A
// module exporting t that neither declares it nor gets it from an import exports nothing.
func exportedBy(n *moduleNode, t reflect.Type, visited map[*moduleNode]bool) *moduleNode {
	if visited[n] {
		return nil
	}
	visited[n] = true

	if n.exports[t] {
		if n.providers[t] {
			return n
		}
		for _, imp := range n.imports {
			if owner := exportedBy(imp, t, visited); owner != nil {
				return owner
			}
		}
	}
	for _, e := range n.md.Exports {
		if imp := n.importNode(e); imp != nil {
			if owner := exportedBy(imp, t, visited); owner != nil {
				return owner
			}
		}
	}
	return nil
}

// instantiate returns the cached instance for loc, constructing it on first use.
func (c *Container) instantiate(ctx context.Context, loc location) (any, error) {
	key := loc.key()
	if v, ok := c.instances.Load(key); ok {
		return v, nil
	}

	md := loc.md
	frameCtx, err := c.enterFrame(ctx, frame{module: loc.owner, target: md.Type})
	if err != nil {
		return nil, err
	}

	instance, err := c.construct(frameCtx, loc.owner, md)
	if err != nil {
		return nil, err
	}
	instance, err = interceptProvider(frameCtx, md, loc.owner.moduleType(), instance)
	if err != nil {
		return nil, err
	}

	actual, loaded := c.instances.LoadOrStore(key, instance)
	if !loaded {
		c.recordConstructed(md.Type, instance)
		c.metrics.instantiated(md.Type)
		c.logger.Debug("provider instantiated",
			zap.Stringer("provider", md.Type),
			zap.Stringer("module", loc.owner.md.Type),
			zap.Bool("global", loc.global))
	}
	return actual, nil
}

// resolveArgs resolves the constructor arguments for md from the owning module.
func (c *Container) resolveArgs(ctx context.Context, owner *moduleNode, md *ClassMetadata) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(md.Dependencies))
	for i, dep := range md.Dependencies {
		if dep == contextType {
			args[i] = reflect.ValueOf(ctx)
			continue
		}
		if target, ok := optionalTarget(dep); ok {
			v, err := c.resolveOptional(ctx, owner, dep, target)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}

		v, err := c.resolveFrom(ctx, owner, dep)
		if err != nil {
			return nil, err
		}
		if v == nil {
			args[i] = reflect.Zero(dep)
		} else {
			args[i] = reflect.ValueOf(v)
		}
	}
	return args, nil
}

// isAbsent reports whether err means a provider simply is not there, as opposed to a
// provider that exists but failed.
func isAbsent(err error) bool {
	return errors.Is(err, ErrProviderNotVisible) || errors.Is(err, ErrUnknownProvider)
}

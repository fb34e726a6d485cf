package modinject

import (
	"reflect"

	"go.uber.org/zap"
)

// moduleNode is one module of a graph. Import edges point at other nodes of the same graph.
type moduleNode struct {
	md        *ClassMetadata
	imports   []*moduleNode
	providers map[reflect.Type]bool
	exports   map[reflect.Type]bool
}

func (n *moduleNode) moduleType() reflect.Type {
	if n == nil {
		return nil
	}
	return n.md.Type
}

// importNode returns the imported node for t, if t is one of n's imports.
func (n *moduleNode) importNode(t reflect.Type) *moduleNode {
	for _, imp := range n.imports {
		if imp.md.Type == t {
			return imp
		}
	}
	return nil
}

// moduleGraph owns every node built from a root module.
type moduleGraph struct {
	root  *moduleNode
	nodes map[reflect.Type]*moduleNode
	// order is discovery order, depth first through imports.
	order []*moduleNode
	// globals maps each global provider to the node that declares it.
	globals map[reflect.Type]*moduleNode
}

type graphBuilder struct {
	store  *Store
	logger *zap.Logger
	graph  *moduleGraph
}

// buildGraph discovers every module reachable from root through imports. Each module type
// gets exactly one node; a node is registered before its imports are built, so import
// cycles end at the in-progress node.
func buildGraph(store *Store, root reflect.Type, logger *zap.Logger) (*moduleGraph, error) {
	b := &graphBuilder{
		store:  store,
		logger: logger,
		graph: &moduleGraph{
			nodes:   map[reflect.Type]*moduleNode{},
			globals: map[reflect.Type]*moduleNode{},
		},
	}
	rootNode, err := b.build(root, nil)
	if err != nil {
		return nil, err
	}
	b.graph.root = rootNode
	b.indexGlobals()
	return b.graph, nil
}

func (b *graphBuilder) build(t reflect.Type, importer *moduleNode) (*moduleNode, error) {
	if node, ok := b.graph.nodes[t]; ok {
		return node, nil
	}

	md, ok := b.store.Lookup(t)
	if !ok || md.Kind != KindModule {
		msg := "root is not a declared module"
		if importer != nil {
			msg = "imported type is not a declared module"
		}
		return nil, &DependencyError{
			Kind:           ErrInvalidModule,
			Message:        msg,
			ReferencedType: t,
			Module:         importer.moduleType(),
		}
	}

	node := &moduleNode{
		md:        md,
		providers: make(map[reflect.Type]bool, len(md.Providers)),
		exports:   make(map[reflect.Type]bool, len(md.Exports)),
	}
	for _, p := range md.Providers {
		node.providers[p] = true
	}
	for _, e := range md.Exports {
		node.exports[e] = true
	}
	b.graph.nodes[t] = node
	b.graph.order = append(b.graph.order, node)

	for _, importType := range md.Imports {
		imp, err := b.build(importType, node)
		if err != nil {
			return nil, err
		}
		node.imports = append(node.imports, imp)
	}
	return node, nil
}

// indexGlobals records the owner of every global provider. The first module in discovery
// order that declares a global provider owns it.
func (b *graphBuilder) indexGlobals() {
	for _, node := range b.graph.order {
		for _, p := range node.md.Providers {
			global := node.md.Global
			if !global {
				if md, ok := b.store.Lookup(p); ok && md.Kind == KindProvider && md.Global {
					global = true
				}
			}
			if !global {
				continue
			}
			if owner, exists := b.graph.globals[p]; exists {
				if owner != node {
					b.logger.Debug("duplicate global provider ignored",
						zap.Stringer("provider", p),
						zap.Stringer("owner", owner.md.Type),
						zap.Stringer("module", node.md.Type))
				}
				continue
			}
			b.graph.globals[p] = node
		}
	}
}

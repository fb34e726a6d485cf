package modinject

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Status is a diagnostic tool that returns a string describing the container: every module
// in discovery order with its imports, and each of its providers with whether it has been
// constructed yet. Global providers are marked with the module that owns them.
//
// The output is stable for a given graph and cache state, which makes it usable in tests.
func (c *Container) Status() string {
	result := strings.Builder{}
	result.WriteString(fmt.Sprintf("root: %v\n", c.graph.root.md.Type))

	for _, node := range c.graph.order {
		result.WriteString(fmt.Sprintf("module %v", node.md.Type))
		if node.md.Global {
			result.WriteString(" (global)")
		}
		result.WriteString("\n")
		if len(node.imports) > 0 {
			result.WriteString(fmt.Sprintf("  imports: %s\n", joinTypes(node.md.Imports)))
		}
		if len(node.md.Exports) > 0 {
			result.WriteString(fmt.Sprintf("  exports: %s\n", joinTypes(node.md.Exports)))
		}
		for _, p := range node.md.Providers {
			result.WriteString(fmt.Sprintf("  %v - %s\n", p, c.slotStatus(node, p)))
		}
	}

	if len(c.overrides) > 0 {
		keys := make([]string, 0, len(c.overrides))
		for t := range c.overrides {
			keys = append(keys, t.String())
		}
		sort.Strings(keys)
		result.WriteString("overrides:\n")
		for _, k := range keys {
			result.WriteString(fmt.Sprintf("  %s\n", k))
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}

func (c *Container) slotStatus(node *moduleNode, p reflect.Type) string {
	key := scopeKey{module: node, target: p}
	label := ""
	md, known := c.store.Lookup(p)
	if !known {
		return "no provider metadata"
	}
	if owner, ok := c.globalOwner(node, p, md); ok {
		key = scopeKey{target: p}
		if owner != node {
			return fmt.Sprintf("global, owned by %v", owner.md.Type)
		}
		label = "global, "
	}
	if _, ok := c.instances.Load(key); ok {
		return label + "constructed"
	}
	return label + "not constructed"
}

func joinTypes(types []reflect.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

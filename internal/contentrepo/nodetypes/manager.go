// Package nodetypes loads node type definitions and answers inheritance and
// constraint questions about them.
package nodetypes

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNodeTypeNotFound is returned for names that are not defined.
var ErrNodeTypeNotFound = errors.New("node type not found")

// ErrInvalidDefinition is returned for definitions that cannot be merged.
var ErrInvalidDefinition = errors.New("invalid node type definition")

// Manager holds every loaded node type.
type Manager struct {
	types map[string]*NodeType
	names []string
}

// Definitions maps node type names to their raw, unmerged configuration.
type Definitions map[string]map[string]interface{}

// NewManager merges raw definitions along their super types and runs the
// postprocessors over every merged type in name order.
func NewManager(defs Definitions, postprocessors ...Postprocessor) (*Manager, error) {
	m := &Manager{types: make(map[string]*NodeType, len(defs))}

	building := make(map[string]bool)
	var build func(name string) (*NodeType, error)
	build = func(name string) (*NodeType, error) {
		if nt, ok := m.types[name]; ok {
			return nt, nil
		}
		raw, ok := defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, name)
		}
		if building[name] {
			return nil, fmt.Errorf("%w: %s inherits from itself", ErrInvalidDefinition, name)
		}
		building[name] = true
		defer delete(building, name)

		nt := &NodeType{name: name}
		merged := map[string]interface{}{}
		for _, superName := range declaredSuperTypes(raw["superTypes"]) {
			super, err := build(superName)
			if err != nil {
				return nil, fmt.Errorf("%s: super type: %w", name, err)
			}
			nt.superTypes = append(nt.superTypes, super)
			merged = mergeMaps(merged, super.config)
		}
		own := copyMap(raw)
		delete(own, "superTypes")
		merged = mergeMaps(merged, own)

		abstract, _ := raw["abstract"].(bool)
		nt.abstract = abstract
		delete(merged, "abstract")
		nt.config = merged

		m.types[name] = nt
		return nt, nil
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := build(name); err != nil {
			return nil, err
		}
	}
	m.names = names

	for _, name := range names {
		nt := m.types[name]
		for _, p := range postprocessors {
			p.Process(nt, nt.config)
		}
	}

	for _, name := range names {
		if err := m.resolveChildNodes(m.types[name]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) resolveChildNodes(nt *NodeType) error {
	children, _ := nt.config["childNodes"].(map[string]interface{})
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, childName := range names {
		typeName, _ := asMap(children[childName])["type"].(string)
		if typeName == "" {
			continue
		}
		childType, ok := m.types[typeName]
		if !ok {
			return fmt.Errorf("%w: child node %q of %s has type %s", ErrNodeTypeNotFound, childName, nt.name, typeName)
		}
		nt.autoCreated = append(nt.autoCreated, ChildNode{Name: childName, Type: childType})
	}
	return nil
}

// declaredSuperTypes accepts both the map form {Name: true|false|null} and a
// plain list. Map entries are taken in name order; false and null disable.
func declaredSuperTypes(v interface{}) []string {
	switch st := v.(type) {
	case map[string]interface{}:
		var names []string
		for name, enabled := range st {
			if b, ok := enabled.(bool); ok && b {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return names
	case []interface{}:
		var names []string
		for _, item := range st {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	case []string:
		return append([]string(nil), st...)
	default:
		return nil
	}
}

// NodeType returns the named type.
func (m *Manager) NodeType(name string) (*NodeType, error) {
	nt, ok := m.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, name)
	}
	return nt, nil
}

// IsOfType reports whether typeName is defined and inherits from superType.
func (m *Manager) IsOfType(typeName, superType string) bool {
	nt, ok := m.types[typeName]
	return ok && nt.IsOfType(superType)
}

// NodeTypes returns all types sorted by name.
func (m *Manager) NodeTypes(includeAbstract bool) []*NodeType {
	out := make([]*NodeType, 0, len(m.names))
	for _, name := range m.names {
		nt := m.types[name]
		if nt.abstract && !includeAbstract {
			continue
		}
		out = append(out, nt)
	}
	return out
}

// SubNodeTypes returns every type inheriting from superType, excluding
// superType itself, sorted by name.
func (m *Manager) SubNodeTypes(superType string, includeAbstract bool) ([]*NodeType, error) {
	if _, ok := m.types[superType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, superType)
	}
	var out []*NodeType
	for _, nt := range m.NodeTypes(includeAbstract) {
		if nt.name != superType && nt.IsOfType(superType) {
			out = append(out, nt)
		}
	}
	return out, nil
}

// mergeMaps deep-merges src over dst and returns dst. Nested maps merge,
// everything else (lists included) is replaced. src is copied, never aliased.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = map[string]interface{}{}
	}
	for k, v := range src {
		if sv, ok := v.(map[string]interface{}); ok {
			if dv, ok := dst[k].(map[string]interface{}); ok {
				dst[k] = mergeMaps(dv, sv)
				continue
			}
			dst[k] = copyMap(sv)
			continue
		}
		dst[k] = v
	}
	return dst
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	return mergeMaps(map[string]interface{}{}, src)
}

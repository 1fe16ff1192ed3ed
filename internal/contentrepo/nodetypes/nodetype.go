package nodetypes

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NodeType is a fully merged node type definition.
type NodeType struct {
	name       string
	abstract   bool
	superTypes []*NodeType
	config     map[string]interface{}

	autoCreated []ChildNode
}

// ChildNode is an auto-created child node declared by a node type.
type ChildNode struct {
	Name string
	Type *NodeType
}

// Name returns the fully qualified node type name, e.g. "Acme.Site:Page".
func (nt *NodeType) Name() string { return nt.name }

// IsAbstract reports whether the type can only be used as a super type.
func (nt *NodeType) IsAbstract() bool { return nt.abstract }

// IsAggregate reports whether nodes of this type form an aggregate root.
func (nt *NodeType) IsAggregate() bool {
	v, _ := nt.config["aggregate"].(bool)
	return v
}

// Configuration returns the merged configuration. Callers must not modify it.
func (nt *NodeType) Configuration() map[string]interface{} { return nt.config }

// ConfigurationValue looks up a dot-separated path in the merged configuration.
func (nt *NodeType) ConfigurationValue(path string) (interface{}, bool) {
	var cur interface{} = nt.config
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Label returns ui.label, or a label derived from the type name.
func (nt *NodeType) Label() string {
	if v, ok := nt.ConfigurationValue("ui.label"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return labelFromName(nt.name)
}

// HelpMessage returns ui.help.message if one is configured.
func (nt *NodeType) HelpMessage() string {
	if v, ok := nt.ConfigurationValue("ui.help.message"); ok {
		s, _ := v.(string)
		return s
	}
	return ""
}

// IsOfType reports whether the type is name or inherits from it.
func (nt *NodeType) IsOfType(name string) bool {
	return nt.distanceTo(name) >= 0
}

// distanceTo returns the number of inheritance steps to name, or -1.
func (nt *NodeType) distanceTo(name string) int {
	type step struct {
		t *NodeType
		d int
	}
	queue := []step{{nt, 0}}
	seen := map[*NodeType]bool{nt: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.t.name == name {
			return cur.d
		}
		for _, s := range cur.t.superTypes {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, step{s, cur.d + 1})
			}
		}
	}
	return -1
}

// AllowsChildNodeType checks the type's own constraints.nodeTypes.
func (nt *NodeType) AllowsChildNodeType(child *NodeType) bool {
	constraints, _ := nt.ConfigurationValue("constraints.nodeTypes")
	return allowedByConstraints(child, asMap(constraints))
}

// AllowsGrandchildNodeType checks whether child may be created below the
// auto-created child node childName. The child node type's own constraints
// are overruled by the childNodes.<name>.constraints of this type.
func (nt *NodeType) AllowsGrandchildNodeType(childName string, child *NodeType) bool {
	var auto *NodeType
	for _, c := range nt.autoCreated {
		if c.Name == childName {
			auto = c.Type
			break
		}
	}
	if auto == nil {
		return false
	}

	merged := map[string]interface{}{}
	if base, ok := auto.ConfigurationValue("constraints.nodeTypes"); ok {
		merged = mergeMaps(merged, asMap(base))
	}
	if local, ok := nt.ConfigurationValue("childNodes." + childName + ".constraints.nodeTypes"); ok {
		merged = mergeMaps(merged, asMap(local))
	}
	return allowedByConstraints(child, merged)
}

// AutoCreatedChildNodes returns the declared child nodes with a type, by name.
func (nt *NodeType) AutoCreatedChildNodes() []ChildNode {
	return nt.autoCreated
}

// allowedByConstraints applies constraint precedence: an exact name wins,
// then the nearest constrained super type, then "*", else the type is denied.
func allowedByConstraints(nt *NodeType, constraints map[string]interface{}) bool {
	if v, ok := constraints[nt.name].(bool); ok {
		return v
	}

	best := -1
	var bestValue bool
	keys := make([]string, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := constraints[k].(bool)
		if !ok || k == "*" {
			continue
		}
		if d := nt.distanceTo(k); d >= 0 && (best < 0 || d < best) {
			best, bestValue = d, v
		}
	}
	if best >= 0 {
		return bestValue
	}

	if v, ok := constraints["*"].(bool); ok {
		return v
	}
	return false
}

var titleCaser = cases.Title(language.English)

// labelFromName turns "Acme.Site:Content.TextWithImage" into "Text With Image".
func labelFromName(name string) string {
	local := name
	if i := strings.LastIndex(local, ":"); i >= 0 {
		local = local[i+1:]
	}
	if i := strings.LastIndex(local, "."); i >= 0 {
		local = local[i+1:]
	}

	var words []string
	var cur []rune
	for i, r := range local {
		if (unicode.IsUpper(r) && i > 0) || r == '-' || r == '_' {
			if len(cur) > 0 {
				words = append(words, string(cur))
			}
			cur = cur[:0]
			if r == '-' || r == '_' {
				continue
			}
		}
		cur = append(cur, unicode.ToLower(r))
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return titleCaser.String(strings.Join(words, " "))
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

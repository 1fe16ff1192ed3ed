package report

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
)

// Filter matches node type names against a glob; the empty pattern
// matches everything.
type Filter struct {
	pattern string
}

// NewFilter validates pattern.
func NewFilter(pattern string) (Filter, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return Filter{}, fmt.Errorf("%w: invalid filter pattern %q", ErrInvalidArgument, pattern)
	}
	return Filter{pattern: pattern}, nil
}

// Match reports whether name passes the filter.
func (f Filter) Match(name string) bool {
	if f.pattern == "" {
		return true
	}
	ok, err := doublestar.Match(f.pattern, name)
	return err == nil && ok
}

// SubTypes returns the sub types of superType that pass filter.
func SubTypes(m *nodetypes.Manager, superType string, includeAbstract bool, filter Filter) ([]*nodetypes.NodeType, error) {
	all, err := m.SubNodeTypes(superType, includeAbstract)
	if err != nil {
		return nil, err
	}
	var out []*nodetypes.NodeType
	for _, nt := range all {
		if filter.Match(nt.Name()) {
			out = append(out, nt)
		}
	}
	return out, nil
}

// Placement is a node type below which another type may be created,
// directly or inside some of its auto-created child nodes.
type Placement struct {
	NodeType   string
	Direct     bool
	ChildNodes []string
}

// WhereAllowed lists every non-abstract node type passing filter that
// allows typeName as a child or as a grandchild below an auto-created
// child node.
func WhereAllowed(m *nodetypes.Manager, typeName string, filter Filter) ([]Placement, error) {
	target, err := m.NodeType(typeName)
	if err != nil {
		return nil, err
	}

	var out []Placement
	for _, ref := range m.NodeTypes(false) {
		if !filter.Match(ref.Name()) {
			continue
		}
		pl := Placement{NodeType: ref.Name(), Direct: ref.AllowsChildNodeType(target)}
		for _, child := range ref.AutoCreatedChildNodes() {
			if ref.AllowsGrandchildNodeType(child.Name, target) {
				pl.ChildNodes = append(pl.ChildNodes, child.Name)
			}
		}
		if pl.Direct || len(pl.ChildNodes) > 0 {
			out = append(out, pl)
		}
	}
	return out, nil
}

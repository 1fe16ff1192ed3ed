package contentrepo

import (
	"path"
	"sort"
	"strings"

	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
)

// Context is the read-only node tree visible from one workspace and one
// dimension combination.
type Context struct {
	workspace   Workspace
	combination dimensions.Combination

	root   *Node
	byPath map[string]*Node
	byID   map[string]*Node
}

// Workspace returns the workspace the context was created for.
func (c *Context) Workspace() Workspace { return c.workspace }

// Combination returns the dimension combination of the context.
func (c *Context) Combination() dimensions.Combination { return c.combination }

// Root returns the root node "/".
func (c *Context) Root() *Node { return c.root }

// NodeByPath returns the node at an absolute path, or at a path relative to
// the root. It returns nil when there is no such node.
func (c *Context) NodeByPath(p string) *Node {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.byPath[path.Clean(p)]
}

// NodeByIdentifier returns the node with the identifier, or nil.
func (c *Context) NodeByIdentifier(id string) *Node { return c.byID[id] }

// Children returns the child nodes ordered by index, then name.
func (c *Context) Children(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Parent returns the parent node, nil for the root.
func (c *Context) Parent(n *Node) *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// InstancesOf returns every descendant of the root whose type is or
// inherits from typeName, in depth-first pre-order.
func (c *Context) InstancesOf(typeName string) []*Node {
	var out []*Node
	c.Walk(c.root, func(n *Node) {
		if n != c.root && n.IsOfType(typeName) {
			out = append(out, n)
		}
	})
	return out
}

// Descendants returns every node below n in depth-first pre-order.
func (c *Context) Descendants(n *Node) []*Node {
	var out []*Node
	c.Walk(n, func(d *Node) {
		if d != n {
			out = append(out, d)
		}
	})
	return out
}

// Walk calls fn for n and every node below it in depth-first pre-order.
func (c *Context) Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.children {
		c.Walk(child, fn)
	}
}

// ClosestOfType returns n itself or its nearest ancestor whose type is or
// inherits from typeName, nil if there is none.
func (c *Context) ClosestOfType(n *Node, typeName string) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.IsOfType(typeName) {
			return cur
		}
	}
	return nil
}

func sortChildren(n *Node) {
	sort.SliceStable(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		if a.index != b.index {
			return a.index < b.index
		}
		return a.Name() < b.Name()
	})
	for _, child := range n.children {
		sortChildren(child)
	}
}

package contentrepo

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
)

// labelCrop is the rune length at which text labels are cut.
const labelCrop = 100

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[\s\x{00a0}]+`)
)

// Node is a resolved node inside a Context.
type Node struct {
	ctx *Context

	identifier string
	path       string
	typeName   string
	nodeType   *nodetypes.NodeType
	properties map[string]interface{}
	dimensions map[string][]string
	index      int

	parent   *Node
	children []*Node
}

// Context returns the context the node was resolved in.
func (n *Node) Context() *Context { return n.ctx }

// Identifier returns the node identifier shared by all variants.
func (n *Node) Identifier() string { return n.identifier }

// Path returns the absolute node path.
func (n *Node) Path() string { return n.path }

// Name returns the last path segment; the root node has an empty name.
func (n *Node) Name() string {
	if n.path == "/" {
		return ""
	}
	return path.Base(n.path)
}

// NodeTypeName returns the stored type name, also for unknown types.
func (n *Node) NodeTypeName() string { return n.typeName }

// NodeType returns the type definition, nil when the type is not defined.
func (n *Node) NodeType() *nodetypes.NodeType { return n.nodeType }

// IsOfType reports whether the node's type is or inherits from typeName.
func (n *Node) IsOfType(typeName string) bool {
	if n.nodeType != nil {
		return n.nodeType.IsOfType(typeName)
	}
	return n.typeName == typeName
}

// Properties returns the node's properties. Callers must not modify them.
func (n *Node) Properties() map[string]interface{} { return n.properties }

// Property returns a single property value.
func (n *Node) Property(name string) (interface{}, bool) {
	v, ok := n.properties[name]
	return v, ok
}

// StringProperty returns a property as string, empty if unset or not a string.
func (n *Node) StringProperty(name string) string {
	s, _ := n.properties[name].(string)
	return s
}

// Dimensions returns the dimension values of the variant the node was
// resolved from. They may differ from the context's first choice when a
// fallback value matched.
func (n *Node) Dimensions() map[string][]string { return n.dimensions }

// Index returns the sorting index among siblings.
func (n *Node) Index() int { return n.index }

// ContextPath returns "<path>@<workspace>" followed by ";<dimensions>" when
// the context selects dimension values.
func (n *Node) ContextPath() string {
	cp := n.path + "@" + n.ctx.workspace.Name
	if key := n.ctx.combination.Key(); key != "" {
		cp += ";" + key
	}
	return cp
}

// IsAutoCreated reports whether the parent's type declares this node as a
// child node.
func (n *Node) IsAutoCreated() bool {
	if n.parent == nil || n.parent.nodeType == nil {
		return false
	}
	for _, c := range n.parent.nodeType.AutoCreatedChildNodes() {
		if c.Name == n.Name() {
			return true
		}
	}
	return false
}

// Label returns the title, else the text without markup cut at a word
// boundary, else the type label (with the node name for auto-created nodes).
func (n *Node) Label() string {
	raw := n.StringProperty("title")
	if raw == "" {
		raw = n.StringProperty("text")
	}
	if raw == "" {
		label := n.typeName
		if n.nodeType != nil {
			label = n.nodeType.Label()
		}
		if n.IsAutoCreated() {
			label += " (" + n.Name() + ")"
		}
		return label
	}

	text := tagPattern.ReplaceAllString(raw, " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	return cropAtWord(text, labelCrop)
}

func cropAtWord(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

package nodetypes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, postprocessors ...Postprocessor) *Manager {
	t.Helper()
	m, err := Load([]string{filepath.Join("testdata", "NodeTypes")}, postprocessors...)
	require.NoError(t, err)
	return m
}

func names(types []*NodeType) []string {
	out := make([]string, 0, len(types))
	for _, nt := range types {
		out = append(out, nt.Name())
	}
	return out
}

func TestLoad_DiscoversYAMLAndTOML(t *testing.T) {
	m := loadFixture(t)
	for _, name := range []string{"Neos.Neos:Node", "Acme.Site:Page", "Acme.Site:Text", "Acme.Site:LegacyBanner", "unstructured"} {
		_, err := m.NodeType(name)
		assert.NoError(t, err, name)
	}
	assert.Len(t, m.NodeTypes(true), 11)
	assert.Len(t, m.NodeTypes(false), 8)
}

func TestSubNodeTypes(t *testing.T) {
	m := loadFixture(t)

	docs, err := m.SubNodeTypes("Neos.Neos:Document", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme.Site:HomePage", "Acme.Site:Page", "Neos.Neos:Shortcut"}, names(docs))

	all, err := m.SubNodeTypes("Neos.Neos:Node", false)
	require.NoError(t, err)
	assert.NotContains(t, names(all), "Neos.Neos:Document", "abstract types are excluded")
	assert.NotContains(t, names(all), "Neos.Neos:Node", "the super type itself is excluded")
	assert.NotContains(t, names(all), "unstructured")

	withAbstract, err := m.SubNodeTypes("Neos.Neos:Node", true)
	require.NoError(t, err)
	assert.Contains(t, names(withAbstract), "Neos.Neos:Document")

	_, err = m.SubNodeTypes("Acme.Site:Missing", true)
	assert.ErrorIs(t, err, ErrNodeTypeNotFound)
}

func TestInheritance(t *testing.T) {
	m := loadFixture(t)
	page, err := m.NodeType("Acme.Site:Page")
	require.NoError(t, err)

	assert.True(t, page.IsOfType("Neos.Neos:Document"))
	assert.True(t, page.IsOfType("Neos.Neos:Node"))
	assert.False(t, page.IsOfType("Neos.Neos:Content"))
	assert.True(t, page.IsAggregate(), "aggregate is inherited")
	assert.False(t, page.IsAbstract(), "abstract is not inherited")
	assert.Equal(t, "Page", page.Label())

	assert.True(t, m.IsOfType("Acme.Site:Text", "Neos.Neos:Content"))
	assert.False(t, m.IsOfType("Acme.Site:Unknown", "Neos.Neos:Node"))
}

func TestLabelFallback(t *testing.T) {
	m := loadFixture(t)
	banner, err := m.NodeType("Acme.Site:LegacyBanner")
	require.NoError(t, err)
	assert.Equal(t, "Legacy Banner", banner.Label())
	assert.Equal(t, "Text With Image", labelFromName("Acme.Site:Content.TextWithImage"))
	assert.Equal(t, "Unstructured", labelFromName("unstructured"))
}

func TestConstraints(t *testing.T) {
	m := loadFixture(t)
	get := func(name string) *NodeType {
		nt, err := m.NodeType(name)
		require.NoError(t, err)
		return nt
	}

	collection := get("Neos.Neos:ContentCollection")
	page := get("Acme.Site:Page")
	home := get("Acme.Site:HomePage")
	text := get("Acme.Site:Text")
	teaser := get("Acme.Site:Teaser")

	assert.True(t, collection.AllowsChildNodeType(text), "allowed through nearest super type")
	assert.False(t, collection.AllowsChildNodeType(page), "denied by wildcard")
	assert.True(t, page.AllowsChildNodeType(home), "documents allow documents")
	assert.False(t, page.AllowsChildNodeType(text))

	require.Len(t, page.AutoCreatedChildNodes(), 1)
	assert.Equal(t, "main", page.AutoCreatedChildNodes()[0].Name)
	assert.True(t, page.AllowsGrandchildNodeType("main", text))
	assert.False(t, page.AllowsGrandchildNodeType("main", teaser), "exact constraint on the child node wins")
	assert.True(t, home.AllowsGrandchildNodeType("main", teaser))
	assert.False(t, home.AllowsGrandchildNodeType("footer", text), "unknown child nodes allow nothing")
}

func TestAllowedByConstraints_Precedence(t *testing.T) {
	defs := Definitions{
		"A:Base":  {},
		"A:Mid":   {"superTypes": map[string]interface{}{"A:Base": true}},
		"A:Leaf":  {"superTypes": map[string]interface{}{"A:Mid": true}},
		"A:Other": {},
	}
	m, err := NewManager(defs)
	require.NoError(t, err)
	leaf, _ := m.NodeType("A:Leaf")
	other, _ := m.NodeType("A:Other")

	constraints := map[string]interface{}{"A:Base": true, "A:Mid": false, "*": true}
	assert.False(t, allowedByConstraints(leaf, constraints), "nearest super type decides")

	constraints["A:Leaf"] = true
	assert.True(t, allowedByConstraints(leaf, constraints), "exact name decides")

	assert.True(t, allowedByConstraints(other, constraints), "wildcard decides")
	assert.False(t, allowedByConstraints(other, map[string]interface{}{"A:Other": nil}), "null constraints are ignored")
}

func TestNewManager_Errors(t *testing.T) {
	_, err := NewManager(Definitions{"A:B": {"superTypes": []interface{}{"A:Missing"}}})
	assert.ErrorIs(t, err, ErrNodeTypeNotFound)

	_, err = NewManager(Definitions{
		"A:X": {"superTypes": map[string]interface{}{"A:Y": true}},
		"A:Y": {"superTypes": map[string]interface{}{"A:X": true}},
	})
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = NewManager(Definitions{"A:X": {"childNodes": map[string]interface{}{"main": map[string]interface{}{"type": "A:Nope"}}}})
	assert.ErrorIs(t, err, ErrNodeTypeNotFound)
}

func TestNewManager_DisabledSuperTypeAndMergeIsolation(t *testing.T) {
	m, err := NewManager(Definitions{
		"A:Base":  {"ui": map[string]interface{}{"label": "Base", "icon": "x"}},
		"A:Extra": {},
		"A:Child": {
			"superTypes": map[string]interface{}{"A:Base": true, "A:Extra": false},
			"ui":         map[string]interface{}{"label": "Child"},
		},
	})
	require.NoError(t, err)

	child, _ := m.NodeType("A:Child")
	base, _ := m.NodeType("A:Base")
	assert.False(t, child.IsOfType("A:Extra"))
	assert.Equal(t, "Child", child.Label())
	icon, ok := child.ConfigurationValue("ui.icon")
	assert.True(t, ok)
	assert.Equal(t, "x", icon)
	assert.Equal(t, "Base", base.Label(), "merging must not write through to the super type")
}

func TestIntegratorHelpMessage(t *testing.T) {
	pps, err := Postprocessors([]string{"integrator-help"})
	require.NoError(t, err)
	m := loadFixture(t, pps...)

	page, _ := m.NodeType("Acme.Site:Page")
	assert.Equal(t, "NodeType: Acme.Site:Page", page.HelpMessage())
	msg, ok := page.ConfigurationValue("properties.title.ui.help.message")
	require.True(t, ok)
	assert.Equal(t, "property: title ,type: string", msg)

	shortcut, _ := m.NodeType("Neos.Neos:Shortcut")
	_, ok = shortcut.ConfigurationValue("properties.target.ui")
	assert.False(t, ok, "properties without ui are left alone")

	banner, _ := m.NodeType("Acme.Site:LegacyBanner")
	assert.Empty(t, banner.HelpMessage(), "types without ui get no message")

	_, err = Postprocessors([]string{"nope"})
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	bad := filepath.Join(dir, "NodeTypes.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("'A:B': [1, 2]\n"), 0o600))
	_, err = Load([]string{bad})
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	txt := filepath.Join(dir, "types.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = Load([]string{txt})
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoad_LaterFilesMergeOverEarlier(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(first, []byte("'A:T':\n  ui:\n    label: First\n    icon: icon-a\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("'A:T':\n  ui:\n    label: Second\n"), 0o600))

	m, err := Load([]string{first, second})
	require.NoError(t, err)
	nt, _ := m.NodeType("A:T")
	assert.Equal(t, "Second", nt.Label())
	icon, _ := nt.ConfigurationValue("ui.icon")
	assert.Equal(t, "icon-a", icon)
}

package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
	"github.com/fulmenhq/janitor/internal/contentrepo/yamlstore"
)

func testContext(t *testing.T, combination dimensions.Combination) *contentrepo.Context {
	t.Helper()
	types, err := nodetypes.NewManager(nodetypes.Definitions{
		"Neos.Neos:Document":          {"abstract": true},
		"Neos.Neos:Shortcut":          {"superTypes": []interface{}{"Neos.Neos:Document"}},
		"Neos.Neos:ContentCollection": {},
		"Acme.Site:Page":              {"superTypes": []interface{}{"Neos.Neos:Document"}},
		"Acme.Site:Text":              {},
	})
	require.NoError(t, err)

	store, err := yamlstore.Open("")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.AddWorkspace(ctx, contentrepo.Workspace{Name: "live"}))

	node := func(id, path, typ string, props map[string]interface{}) contentrepo.NodeRecord {
		return contentrepo.NodeRecord{Identifier: id, Path: path, NodeType: typ, Workspace: "live", Properties: props}
	}
	seg := func(s string) map[string]interface{} { return map[string]interface{}{"uriPathSegment": s} }
	shortcut := func(s, mode, target string) map[string]interface{} {
		return map[string]interface{}{"uriPathSegment": s, "targetMode": mode, "target": target}
	}
	require.NoError(t, store.PutNodes(ctx, []contentrepo.NodeRecord{
		node("sites", "/sites", "unstructured", nil),
		node("home", "/sites/acme", "Acme.Site:Page", seg("home")),
		node("about", "/sites/acme/about", "Acme.Site:Page", seg("about")),
		node("team", "/sites/acme/about/team", "Acme.Site:Page", seg("team")),
		node("main", "/sites/acme/about/main", "Neos.Neos:ContentCollection", nil),
		node("text", "/sites/acme/about/main/text", "Acme.Site:Text", nil),
		node("nameless", "/sites/acme/nameless", "Acme.Site:Page", nil),
		node("go-first", "/sites/acme/go-first", "Neos.Neos:Shortcut", shortcut("go-first", TargetFirstChildNode, "")),
		node("first-child", "/sites/acme/go-first/child", "Acme.Site:Page", seg("child")),
		node("go-parent", "/sites/acme/go-parent", "Neos.Neos:Shortcut", shortcut("go-parent", TargetParentNode, "")),
		node("go-node", "/sites/acme/go-node", "Neos.Neos:Shortcut", shortcut("go-node", TargetSelected, "node://team")),
		node("go-ext", "/sites/acme/go-ext", "Neos.Neos:Shortcut", shortcut("go-ext", TargetSelected, "https://example.com/x")),
		node("go-empty", "/sites/acme/go-empty", "Neos.Neos:Shortcut", shortcut("go-empty", TargetSelected, "")),
		node("go-loop", "/sites/acme/go-loop", "Neos.Neos:Shortcut", shortcut("go-loop", "", "node://go-loop")),
		node("go-odd", "/sites/acme/go-odd", "Neos.Neos:Shortcut", shortcut("go-odd", "sideways", "")),
		node("other", "/other", "unstructured", nil),
		node("stray", "/other/page", "Acme.Site:Page", seg("stray")),
	}))

	c, err := contentrepo.NewRepository(store, types).CreateContext(ctx, "live", combination)
	require.NoError(t, err)
	return c
}

func newService(t *testing.T) *NodeURIService {
	t.Helper()
	s, err := NewNodeURIService(Options{
		BaseURI:      "https://domain.tld/",
		Suffix:       ".html",
		DocumentType: "Neos.Neos:Document",
		ShortcutType: "Neos.Neos:Shortcut",
	})
	require.NoError(t, err)
	return s
}

func german() dimensions.Combination {
	return dimensions.Combination{Axes: []dimensions.Axis{{Name: "language", Preset: "de", Values: []string{"de", "en"}, URISegment: "de"}}}
}

func TestBuildURI(t *testing.T) {
	s := newService(t)
	c := testContext(t, german())
	ctx := context.Background()

	tests := []struct {
		path    string
		resolve bool
		want    string
	}{
		{"/sites/acme", true, "https://domain.tld/de"},
		{"/sites/acme/about", true, "https://domain.tld/de/about.html"},
		{"/sites/acme/about/team", true, "https://domain.tld/de/about/team.html"},
		{"/sites/acme/go-first", true, "https://domain.tld/de/go-first/child.html"},
		{"/sites/acme/go-first", false, "https://domain.tld/de/go-first.html"},
		{"/sites/acme/go-parent", true, "https://domain.tld/de"},
		{"/sites/acme/go-node", true, "https://domain.tld/de/about/team.html"},
		{"/sites/acme/go-ext", true, "https://example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			node := c.NodeByPath(tt.path)
			require.NotNil(t, node)
			got, err := s.BuildURI(ctx, c, node, tt.resolve)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildURI_WithoutDimensions(t *testing.T) {
	s := newService(t)
	c := testContext(t, dimensions.Combination{})

	got, err := s.BuildURI(context.Background(), c, c.NodeByPath("/sites/acme"), true)
	require.NoError(t, err)
	assert.Equal(t, "https://domain.tld/", got)

	got, err = s.BuildURI(context.Background(), c, c.NodeByPath("/sites/acme/about"), true)
	require.NoError(t, err)
	assert.Equal(t, "https://domain.tld/about.html", got)
}

func TestBuildURI_Errors(t *testing.T) {
	s := newService(t)
	c := testContext(t, german())
	ctx := context.Background()

	tests := []struct {
		path string
		want error
	}{
		{"/sites/acme/about/main/text", ErrNoMatchingRoute},
		{"/sites/acme/nameless", ErrNoMatchingRoute},
		{"/other/page", ErrNoMatchingRoute},
		{"/sites/acme/go-empty", ErrShortcutUnresolved},
		{"/sites/acme/go-loop", ErrShortcutUnresolved},
		{"/sites/acme/go-odd", ErrShortcutUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			node := c.NodeByPath(tt.path)
			require.NotNil(t, node)
			_, err := s.BuildURI(ctx, c, node, true)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.path)
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := s.BuildURI(cancelled, c, c.NodeByPath("/sites/acme"), true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewNodeURIService_InvalidBase(t *testing.T) {
	for _, base := range []string{"", "domain.tld", "://nope"} {
		_, err := NewNodeURIService(Options{BaseURI: base})
		assert.Error(t, err, base)
	}
}

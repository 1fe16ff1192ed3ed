package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/janitor/internal/contentrepo"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "content.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestWorkspacesAndSites(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.AddWorkspace(ctx, contentrepo.Workspace{Name: "live"}))
	require.NoError(t, s.AddWorkspace(ctx, contentrepo.Workspace{Name: "user-admin", Base: "live"}))
	require.NoError(t, s.AddWorkspace(ctx, contentrepo.Workspace{Name: "live", Title: "Live"}))

	workspaces, err := s.Workspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contentrepo.Workspace{
		{Name: "live", Title: "Live"},
		{Name: "user-admin", Base: "live"},
	}, workspaces, "upserts keep their position")

	ws, err := s.Workspace(ctx, "user-admin")
	require.NoError(t, err)
	assert.Equal(t, "live", ws.Base)
	_, err = s.Workspace(ctx, "missing")
	assert.ErrorIs(t, err, contentrepo.ErrWorkspaceNotFound)

	require.NoError(t, s.AddSite(ctx, contentrepo.Site{NodeName: "acme", Name: "Acme", PackageKey: "Acme.Site"}))
	assert.ErrorIs(t, s.AddSite(ctx, contentrepo.Site{NodeName: "acme"}), contentrepo.ErrSiteExists)
	site, err := s.Site(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme.Site", site.PackageKey)
	_, err = s.Site(ctx, "other")
	assert.ErrorIs(t, err, contentrepo.ErrSiteNotFound)

	sites, err := s.Sites(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 1)
}

func TestPutNodesUpserts(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	en := contentrepo.NodeRecord{
		Identifier: "n1", Path: "/sites/acme", NodeType: "Acme.Site:HomePage", Workspace: "live",
		Dimensions: map[string][]string{"language": {"en"}},
		Properties: map[string]interface{}{"title": "Home", "weight": 3},
		Index:      100,
	}
	de := en
	de.Dimensions = map[string][]string{"language": {"de"}}
	de.Properties = map[string]interface{}{"title": "Start"}
	plain := contentrepo.NodeRecord{Identifier: "sites", Path: "/sites", NodeType: "unstructured", Workspace: "live"}
	require.NoError(t, s.PutNodes(ctx, []contentrepo.NodeRecord{plain, en, de}))

	en.Properties = map[string]interface{}{"title": "Welcome"}
	en.Removed = true
	draft := en
	draft.Workspace = "user-admin"
	require.NoError(t, s.PutNodes(ctx, []contentrepo.NodeRecord{en, draft}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	live, err := reopened.NodeRecords(ctx, []string{"live"})
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, "sites", live[0].Identifier)
	assert.Nil(t, live[0].Dimensions)
	assert.Nil(t, live[0].Properties)
	assert.Equal(t, "Welcome", live[1].Properties["title"], "upsert keeps the original row order")
	assert.True(t, live[1].Removed)
	assert.Equal(t, 100, live[1].Index)
	assert.Equal(t, []string{"de"}, live[2].Dimensions["language"])

	all, err := reopened.NodeRecords(ctx, []string{"live", "user-admin"})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := reopened.NodeRecords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJSONNumbersDecodeAsFloat(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.PutNodes(ctx, []contentrepo.NodeRecord{{
		Identifier: "n", Path: "/n", NodeType: "T", Workspace: "live",
		Properties: map[string]interface{}{"weight": 3},
	}}))
	records, err := s.NodeRecords(ctx, []string{"live"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(3), records[0].Properties["weight"])
}

func TestRegisteredDriver(t *testing.T) {
	assert.Contains(t, contentrepo.Drivers(), Driver)
	store, err := contentrepo.Open(Driver, filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

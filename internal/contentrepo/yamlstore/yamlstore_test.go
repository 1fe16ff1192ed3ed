package yamlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/janitor/internal/contentrepo"
)

func TestOpen_Fixture(t *testing.T) {
	s, err := Open(filepath.Join("testdata", "content.yaml"))
	require.NoError(t, err)
	ctx := context.Background()

	workspaces, err := s.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, workspaces, 2)
	assert.Equal(t, "live", workspaces[0].Name)
	assert.Equal(t, "live", workspaces[1].Base)

	_, err = s.Workspace(ctx, "nope")
	assert.ErrorIs(t, err, contentrepo.ErrWorkspaceNotFound)

	site, err := s.Site(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme.Site", site.PackageKey)
	_, err = s.Site(ctx, "other")
	assert.ErrorIs(t, err, contentrepo.ErrSiteNotFound)

	live, err := s.NodeRecords(ctx, []string{"live"})
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, []string{"en"}, live[1].Dimensions["language"])
	meta, ok := live[1].Properties["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"index", "follow"}, meta["robots"])

	both, err := s.NodeRecords(ctx, []string{"live", "user-admin"})
	require.NoError(t, err)
	assert.Len(t, both, 3)
}

func TestOpen_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workspaces: {name: [\n"), 0o600))
	_, err := Open(bad)
	assert.Error(t, err)
}

func TestWritesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.AddWorkspace(ctx, contentrepo.Workspace{Name: "live"}))
	require.NoError(t, s.AddWorkspace(ctx, contentrepo.Workspace{Name: "live", Title: "Live"}))
	require.NoError(t, s.AddSite(ctx, contentrepo.Site{NodeName: "acme", PackageKey: "Acme.Site"}))
	assert.ErrorIs(t, s.AddSite(ctx, contentrepo.Site{NodeName: "acme"}), contentrepo.ErrSiteExists)

	rec := contentrepo.NodeRecord{
		Identifier: "n1", Path: "/sites/acme", NodeType: "Acme.Site:HomePage", Workspace: "live",
		Dimensions: map[string][]string{"language": {"en"}},
		Properties: map[string]interface{}{"title": "First"},
	}
	require.NoError(t, s.PutNodes(ctx, []contentrepo.NodeRecord{rec}))

	rec.Properties = map[string]interface{}{"title": "Second"}
	other := rec
	other.Dimensions = map[string][]string{"language": {"de"}}
	require.NoError(t, s.PutNodes(ctx, []contentrepo.NodeRecord{rec, other}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	workspaces, _ := reopened.Workspaces(ctx)
	require.Len(t, workspaces, 1)
	assert.Equal(t, "Live", workspaces[0].Title)

	records, err := reopened.NodeRecords(ctx, []string{"live"})
	require.NoError(t, err)
	require.Len(t, records, 2, "same identifier and dimensions replace, other dimensions add")
	assert.Equal(t, "Second", records[0].Properties["title"])
	assert.Equal(t, []string{"de"}, records[1].Dimensions["language"])
}

func TestInMemory(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	require.NoError(t, s.AddWorkspace(context.Background(), contentrepo.Workspace{Name: "live"}))
	assert.Empty(t, s.Path())
}

func TestRegisteredDriver(t *testing.T) {
	assert.Contains(t, contentrepo.Drivers(), Driver)
	store, err := contentrepo.Open(Driver, filepath.Join("testdata", "content.yaml"))
	require.NoError(t, err)
	_, err = store.Workspace(context.Background(), "live")
	assert.NoError(t, err)
}

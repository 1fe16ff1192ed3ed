// Package yamlstore keeps a content repository in a single YAML snapshot
// file. Every write rewrites the snapshot atomically.
package yamlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/pkg/logger"
	"github.com/fulmenhq/janitor/pkg/safeio"
)

// Driver is the name the store registers under.
const Driver = "yaml"

func init() {
	contentrepo.RegisterDriver(Driver, func(path string) (contentrepo.Store, error) {
		return Open(path)
	})
}

// Snapshot is the file layout.
type Snapshot struct {
	Workspaces []contentrepo.Workspace  `yaml:"workspaces"`
	Sites      []contentrepo.Site       `yaml:"sites,omitempty"`
	Nodes      []contentrepo.NodeRecord `yaml:"nodes"`
}

// Store is a contentrepo.Store backed by a snapshot file.
type Store struct {
	path string

	mu   sync.RWMutex
	snap Snapshot
}

// Open reads the snapshot at path. A missing file opens an empty store that
// is created on the first write; an empty path keeps the store in memory.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("Snapshot does not exist yet", logger.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	logger.Debug("Loaded snapshot",
		logger.String("path", path),
		logger.Int("workspaces", len(s.snap.Workspaces)),
		logger.Int("nodes", len(s.snap.Nodes)))
	return s, nil
}

// Path returns the snapshot file, empty for in-memory stores.
func (s *Store) Path() string { return s.path }

// Workspaces implements contentrepo.Store.
func (s *Store) Workspaces(_ context.Context) ([]contentrepo.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]contentrepo.Workspace(nil), s.snap.Workspaces...), nil
}

// Workspace implements contentrepo.Store.
func (s *Store) Workspace(_ context.Context, name string) (contentrepo.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ws := range s.snap.Workspaces {
		if ws.Name == name {
			return ws, nil
		}
	}
	return contentrepo.Workspace{}, fmt.Errorf("%w: %s", contentrepo.ErrWorkspaceNotFound, name)
}

// NodeRecords implements contentrepo.Store.
func (s *Store) NodeRecords(ctx context.Context, workspaces []string) ([]contentrepo.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(workspaces))
	for _, ws := range workspaces {
		wanted[ws] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contentrepo.NodeRecord
	for _, rec := range s.snap.Nodes {
		if wanted[rec.Workspace] {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Sites implements contentrepo.Store.
func (s *Store) Sites(_ context.Context) ([]contentrepo.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]contentrepo.Site(nil), s.snap.Sites...), nil
}

// Site implements contentrepo.Store.
func (s *Store) Site(_ context.Context, nodeName string) (contentrepo.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, site := range s.snap.Sites {
		if site.NodeName == nodeName {
			return site, nil
		}
	}
	return contentrepo.Site{}, fmt.Errorf("%w: %s", contentrepo.ErrSiteNotFound, nodeName)
}

// AddWorkspace implements contentrepo.Store.
func (s *Store) AddWorkspace(_ context.Context, ws contentrepo.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.Workspaces {
		if s.snap.Workspaces[i].Name == ws.Name {
			s.snap.Workspaces[i] = ws
			return s.save()
		}
	}
	s.snap.Workspaces = append(s.snap.Workspaces, ws)
	return s.save()
}

// AddSite implements contentrepo.Store.
func (s *Store) AddSite(_ context.Context, site contentrepo.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.snap.Sites {
		if existing.NodeName == site.NodeName {
			return fmt.Errorf("%w: %s", contentrepo.ErrSiteExists, site.NodeName)
		}
	}
	s.snap.Sites = append(s.snap.Sites, site)
	return s.save()
}

// PutNodes implements contentrepo.Store.
func (s *Store) PutNodes(ctx context.Context, records []contentrepo.NodeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(s.snap.Nodes))
	for i, rec := range s.snap.Nodes {
		index[recordKey(rec)] = i
	}
	for _, rec := range records {
		key := recordKey(rec)
		if i, ok := index[key]; ok {
			s.snap.Nodes[i] = rec
			continue
		}
		index[key] = len(s.snap.Nodes)
		s.snap.Nodes = append(s.snap.Nodes, rec)
	}
	return s.save()
}

// Close implements contentrepo.Store. Writes are persisted immediately.
func (s *Store) Close() error { return nil }

func recordKey(rec contentrepo.NodeRecord) string {
	return rec.Identifier + "\x00" + rec.Workspace + "\x00" + rec.DimensionsHash()
}

// save must be called with the write lock held.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := safeio.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", s.path, err)
	}
	return nil
}

package janitor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/yamlstore"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// ImportResult counts what Import wrote.
type ImportResult struct {
	Workspaces int
	Sites      int
	Nodes      int
}

// Import copies workspaces, sites and node records of a YAML snapshot into
// the repository's store. Existing records with the same identifier,
// workspace and dimensions are replaced; sites already registered are kept.
func (s *Service) Import(ctx context.Context, snapshotPath string) (ImportResult, error) {
	if _, err := os.Stat(snapshotPath); err != nil {
		return ImportResult{}, fmt.Errorf("%w: snapshot %s: %v", ErrInvalidArgument, snapshotPath, err)
	}
	src, err := yamlstore.Open(snapshotPath)
	if err != nil {
		return ImportResult{}, err
	}
	defer func() { _ = src.Close() }()

	store := s.repo.Store()
	var res ImportResult

	workspaces, err := src.Workspaces(ctx)
	if err != nil {
		return res, err
	}
	names := make([]string, 0, len(workspaces))
	for _, ws := range workspaces {
		if err := store.AddWorkspace(ctx, ws); err != nil {
			return res, fmt.Errorf("importing workspace %s: %w", ws.Name, err)
		}
		names = append(names, ws.Name)
		res.Workspaces++
	}

	sites, err := src.Sites(ctx)
	if err != nil {
		return res, err
	}
	for _, site := range sites {
		err := store.AddSite(ctx, site)
		if errors.Is(err, contentrepo.ErrSiteExists) {
			logger.Warn("Site already registered, keeping it", logger.String("site", site.NodeName))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("importing site %s: %w", site.NodeName, err)
		}
		res.Sites++
	}

	records, err := src.NodeRecords(ctx, names)
	if err != nil {
		return res, err
	}
	if err := store.PutNodes(ctx, records); err != nil {
		return res, fmt.Errorf("importing nodes: %w", err)
	}
	res.Nodes = len(records)
	return res, nil
}

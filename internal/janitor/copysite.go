package janitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/pkg/logger"
)

const sitesPath = "/sites/"

// CopyResult summarizes a site copy.
type CopyResult struct {
	Combinations int
	Nodes        int
	Variants     int
}

// CopySite copies the live subtree of /sites/<source> to /sites/<target>
// for every allowed dimension combination and registers the target site
// with the source's package key. Copied nodes get fresh identifiers that
// are shared by all their variants. Nodes written before a failure stay in
// place.
func (s *Service) CopySite(ctx context.Context, source, target string) (CopyResult, error) {
	if err := validateNodeName(target); err != nil {
		return CopyResult{}, err
	}
	store := s.repo.Store()

	sourceSite, err := store.Site(ctx, source)
	if errors.Is(err, contentrepo.ErrSiteNotFound) {
		return CopyResult{}, fmt.Errorf("%w: source site %q does not exist", ErrInvalidArgument, source)
	}
	if err != nil {
		return CopyResult{}, err
	}
	if _, err := store.Site(ctx, target); err == nil {
		return CopyResult{}, fmt.Errorf("%w: target site %q already exists", ErrInvalidArgument, target)
	} else if !errors.Is(err, contentrepo.ErrSiteNotFound) {
		return CopyResult{}, err
	}

	type batch struct {
		label   string
		records []contentrepo.NodeRecord
	}
	var batches []batch
	identifiers := map[string]string{}
	sourceRoot := sitesPath + source
	targetRoot := sitesPath + target

	for _, comb := range s.combinator.AllowedCombinations() {
		c, err := s.repo.CreateContext(ctx, contentrepo.LiveWorkspace, comb)
		if err != nil {
			return CopyResult{}, err
		}
		if c.NodeByPath(targetRoot) != nil {
			return CopyResult{}, fmt.Errorf("%w: node %s already exists", ErrInvalidArgument, targetRoot)
		}
		siteNode := c.NodeByPath(sourceRoot)
		if siteNode == nil {
			logger.Debug("Site node not visible", logger.String("site", source), logger.String("dimensions", comb.Key()))
			continue
		}

		nodes := append([]*contentrepo.Node{siteNode}, c.Descendants(siteNode)...)
		records := make([]contentrepo.NodeRecord, 0, len(nodes))
		for _, n := range nodes {
			id, ok := identifiers[n.Identifier()]
			if !ok {
				id = uuid.NewString()
				identifiers[n.Identifier()] = id
			}
			records = append(records, contentrepo.NodeRecord{
				Identifier: id,
				Path:       targetRoot + strings.TrimPrefix(n.Path(), sourceRoot),
				NodeType:   n.NodeTypeName(),
				Workspace:  contentrepo.LiveWorkspace,
				Dimensions: copyDimensions(n.Dimensions()),
				Properties: copyProperties(n.Properties()),
				Index:      n.Index(),
			})
		}
		batches = append(batches, batch{label: comb.Label(), records: records})
	}
	if len(batches) == 0 {
		return CopyResult{}, fmt.Errorf("%w: site node %s not found in workspace %s", ErrInvalidArgument, sourceRoot, contentrepo.LiveWorkspace)
	}

	res := CopyResult{Nodes: len(identifiers)}
	for _, b := range batches {
		if err := store.PutNodes(ctx, b.records); err != nil {
			return res, fmt.Errorf("copying %s for %s: %w", source, b.label, err)
		}
		res.Combinations++
		res.Variants += len(b.records)
	}

	if err := store.AddSite(ctx, contentrepo.Site{NodeName: target, Name: target, PackageKey: sourceSite.PackageKey}); err != nil {
		return res, fmt.Errorf("registering site %s: %w", target, err)
	}
	return res, nil
}

func validateNodeName(name string) error {
	if name == "" || strings.ContainsAny(name, "/@;#") || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q is not a valid site node name", ErrInvalidArgument, name)
	}
	return nil
}

func copyDimensions(src map[string][]string) map[string][]string {
	if src == nil {
		return nil
	}
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func copyProperties(src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyProperties(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	default:
		return v
	}
}

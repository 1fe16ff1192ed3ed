// Package report aggregates node type occurrences over the scan space of
// workspaces and dimension combinations and renders the results.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// AllWorkspaces selects every workspace of the store.
const AllWorkspaces = "_all"

// ErrInvalidArgument is returned for report parameters out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// WorkspaceSource lists and looks up workspaces.
type WorkspaceSource interface {
	Workspaces(ctx context.Context) ([]contentrepo.Workspace, error)
	Workspace(ctx context.Context, name string) (contentrepo.Workspace, error)
}

// WorkspaceRef is one resolved slot of a workspace selector. Workspace is
// nil when the name did not resolve.
type WorkspaceRef struct {
	Name      string
	Workspace *contentrepo.Workspace
}

// Missing reports whether the name did not resolve.
func (r WorkspaceRef) Missing() bool { return r.Workspace == nil }

// ResolveWorkspaces resolves "_all" to every workspace in store order, and
// a comma-separated list to one slot per name in the given order. Unknown
// names keep their slot as a missing reference.
func ResolveWorkspaces(ctx context.Context, src WorkspaceSource, selector string) ([]WorkspaceRef, error) {
	if strings.TrimSpace(selector) == AllWorkspaces {
		all, err := src.Workspaces(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing workspaces: %w", err)
		}
		refs := make([]WorkspaceRef, len(all))
		for i := range all {
			ws := all[i]
			refs[i] = WorkspaceRef{Name: ws.Name, Workspace: &ws}
		}
		return refs, nil
	}

	names := strings.Split(selector, ",")
	refs := make([]WorkspaceRef, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		ws, err := src.Workspace(ctx, name)
		switch {
		case errors.Is(err, contentrepo.ErrWorkspaceNotFound):
			refs = append(refs, WorkspaceRef{Name: name})
		case err != nil:
			return nil, fmt.Errorf("looking up workspace %q: %w", name, err)
		default:
			refs = append(refs, WorkspaceRef{Name: name, Workspace: &ws})
		}
	}
	return refs, nil
}

// Cell is one (workspace, dimension combination) pair of the scan space.
type Cell struct {
	Workspace   contentrepo.Workspace
	Combination dimensions.Combination
}

// Cells enumerates the scan space workspace-major, combination-minor.
// Missing workspace references are skipped with a warning.
func Cells(refs []WorkspaceRef, combinations []dimensions.Combination) []Cell {
	var missing []string
	cells := make([]Cell, 0, len(refs)*len(combinations))
	for _, ref := range refs {
		if ref.Missing() {
			missing = append(missing, ref.Name)
			continue
		}
		for _, comb := range combinations {
			cells = append(cells, Cell{Workspace: *ref.Workspace, Combination: comb})
		}
	}
	if len(missing) > 0 {
		logger.Warn("Skipping unknown workspaces", logger.Strings("workspaces", missing))
	}
	return cells
}

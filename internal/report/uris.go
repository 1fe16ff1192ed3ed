package report

import (
	"context"
	"fmt"

	"github.com/fulmenhq/janitor/internal/contentrepo"
)

// URIOptions tunes ListURIs.
type URIOptions struct {
	// Limit caps the number of nodes over all cells; zero means no limit.
	Limit   int
	Verbose bool
	// Filter restricts the node types whose nodes are listed.
	Filter Filter
}

// URIResult counts what ListURIs did.
type URIResult struct {
	Nodes  int
	Errors int
}

// ListURIs prints one URI per matched node, cell by cell. Failed nodes are
// counted, detailed with Verbose, and summarized after each cell.
func ListURIs(ctx context.Context, p Printer, cells []Cell, match MatchFunc[*contentrepo.Node], uris URIBuilder, opts URIOptions) (URIResult, error) {
	if opts.Limit < 0 {
		return URIResult{}, fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidArgument, opts.Limit)
	}
	limited := func(n int) bool { return opts.Limit > 0 && n >= opts.Limit }

	var res URIResult
	for _, cell := range cells {
		if limited(res.Nodes) {
			break
		}
		nodes, err := match(ctx, cell)
		if err != nil {
			return res, fmt.Errorf("matching in workspace %s %s: %w", cell.Workspace.Name, cell.Combination.Label(), err)
		}

		errs := 0
		for _, node := range nodes {
			if !opts.Filter.Match(node.NodeTypeName()) {
				continue
			}
			if limited(res.Nodes) {
				break
			}
			res.Nodes++

			uri, err := uris.BuildURI(ctx, node.Context(), node, true)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, ctxErr
				}
				errs++
				if opts.Verbose {
					p.OutputLine("[ERROR]: %s", err.Error())
				}
				continue
			}
			p.OutputLine(uri)
		}
		OutputErrorSummary(p, errs)
		res.Errors += errs
	}
	return res, nil
}

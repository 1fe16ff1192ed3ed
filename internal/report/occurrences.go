package report

import (
	"context"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
)

// URIBuilder builds the frontend URI of a node.
type URIBuilder interface {
	BuildURI(ctx context.Context, c *contentrepo.Context, node *contentrepo.Node, resolveShortcuts bool) (string, error)
}

// OccurrenceRecord is one emitted occurrence and where it can be seen.
type OccurrenceRecord struct {
	Index       int
	ContextPath string
	Workspace   string
	Dimensions  dimensions.Combination
	// Document is the path of the closest document, empty if there is none.
	Document string
	Link     string
	LinkErr  error
}

// LinkText is the link column: the URI, "No Document found", or an inline
// error marker.
func (r OccurrenceRecord) LinkText() string {
	switch {
	case r.Document == "":
		return "No Document found"
	case r.LinkErr != nil:
		return "[ERROR] " + r.LinkErr.Error()
	default:
		return r.Link
	}
}

// Locate resolves the closest document of a matched node and its URI. URI
// failures are kept on the record.
func Locate(ctx context.Context, uris URIBuilder, documentType string, m Match[*contentrepo.Node]) OccurrenceRecord {
	node := m.Item
	c := node.Context()
	rec := OccurrenceRecord{
		Index:       m.Index,
		ContextPath: node.ContextPath(),
		Workspace:   m.Cell.Workspace.Name,
		Dimensions:  m.Cell.Combination,
	}

	doc := c.ClosestOfType(node, documentType)
	if doc == nil {
		return rec
	}
	rec.Document = doc.Path()
	rec.Link, rec.LinkErr = uris.BuildURI(ctx, c, doc, true)
	return rec
}

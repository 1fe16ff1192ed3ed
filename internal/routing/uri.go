// Package routing builds canonical frontend URIs for document nodes.
package routing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fulmenhq/janitor/internal/contentrepo"
)

var (
	// ErrNoMatchingRoute is returned when a node has no frontend route.
	ErrNoMatchingRoute = errors.New("no matching route")
	// ErrShortcutUnresolved is returned when a shortcut has no usable target.
	ErrShortcutUnresolved = errors.New("could not resolve shortcut target")
)

// Shortcut target modes.
const (
	TargetFirstChildNode = "firstChildNode"
	TargetParentNode     = "parentNode"
	TargetSelected       = "selectedTarget"
)

const (
	sitesPath          = "/sites"
	nodeScheme         = "node://"
	maxShortcutHops    = 50
	uriSegmentProp     = "uriPathSegment"
	targetModeProp     = "targetMode"
	shortcutTargetProp = "target"
)

// Options configures a NodeURIService.
type Options struct {
	BaseURI      string
	Suffix       string
	DocumentType string
	ShortcutType string
}

// NodeURIService resolves shortcuts and routes documents to URIs.
type NodeURIService struct {
	base         string
	suffix       string
	documentType string
	shortcutType string
}

// NewNodeURIService validates the base URI and returns a service.
func NewNodeURIService(opts Options) (*NodeURIService, error) {
	u, err := url.Parse(opts.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid base uri %q: %w", opts.BaseURI, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base uri %q: scheme and host are required", opts.BaseURI)
	}
	return &NodeURIService{
		base:         strings.TrimRight(u.String(), "/"),
		suffix:       opts.Suffix,
		documentType: opts.DocumentType,
		shortcutType: opts.ShortcutType,
	}, nil
}

// BuildURI returns the absolute URI of node. With resolveShortcuts set,
// shortcut nodes are first followed to their target; an external target is
// returned as is.
func (s *NodeURIService) BuildURI(ctx context.Context, c *contentrepo.Context, node *contentrepo.Node, resolveShortcuts bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := node
	if resolveShortcuts {
		resolved, external, err := s.resolveShortcut(c, node)
		if err != nil {
			return "", err
		}
		if external != "" {
			return external, nil
		}
		target = resolved
	}

	p, err := s.route(c, target)
	if err != nil {
		return "", err
	}
	return s.base + p, nil
}

// resolveShortcut follows shortcut nodes until a regular document or an
// external target is reached.
func (s *NodeURIService) resolveShortcut(c *contentrepo.Context, node *contentrepo.Node) (*contentrepo.Node, string, error) {
	cur := node
	for hop := 0; cur != nil && cur.IsOfType(s.shortcutType); hop++ {
		if hop >= maxShortcutHops {
			return nil, "", fmt.Errorf("%w for node %q: too many redirects", ErrShortcutUnresolved, node.Path())
		}
		switch mode := cur.StringProperty(targetModeProp); mode {
		case TargetFirstChildNode:
			cur = s.firstChildDocument(c, cur)
		case TargetParentNode:
			cur = c.ClosestOfType(c.Parent(cur), s.documentType)
		case TargetSelected, "":
			target := cur.StringProperty(shortcutTargetProp)
			switch {
			case target == "":
				cur = nil
			case strings.HasPrefix(target, nodeScheme):
				cur = c.NodeByIdentifier(strings.TrimPrefix(target, nodeScheme))
			case strings.Contains(target, "://"):
				return nil, target, nil
			default:
				cur = nil
			}
		default:
			return nil, "", fmt.Errorf("%w for node %q: unknown target mode %q", ErrShortcutUnresolved, node.Path(), mode)
		}
	}
	if cur == nil {
		return nil, "", fmt.Errorf("%w for node %q", ErrShortcutUnresolved, node.Path())
	}
	return cur, "", nil
}

func (s *NodeURIService) firstChildDocument(c *contentrepo.Context, n *contentrepo.Node) *contentrepo.Node {
	for _, child := range c.Children(n) {
		if child.IsOfType(s.documentType) {
			return child
		}
	}
	return nil
}

// route maps a document below /sites/<site> to its path. The site node is
// the homepage; below it every document contributes its uriPathSegment.
func (s *NodeURIService) route(c *contentrepo.Context, node *contentrepo.Node) (string, error) {
	if !node.IsOfType(s.documentType) {
		return "", fmt.Errorf("%w for node %q: not a document", ErrNoMatchingRoute, node.Path())
	}
	rel := strings.TrimPrefix(node.Path(), sitesPath+"/")
	if rel == node.Path() || rel == "" {
		return "", fmt.Errorf("%w for node %q: not inside a site", ErrNoMatchingRoute, node.Path())
	}

	sitePath := sitesPath + "/" + strings.SplitN(rel, "/", 2)[0]

	var segments []string
	for cur := node; cur != nil && cur.Path() != sitePath; cur = c.Parent(cur) {
		if !cur.IsOfType(s.documentType) {
			continue
		}
		seg := cur.StringProperty(uriSegmentProp)
		if seg == "" {
			return "", fmt.Errorf("%w for node %q: %s has no %s", ErrNoMatchingRoute, node.Path(), cur.Path(), uriSegmentProp)
		}
		segments = append([]string{url.PathEscape(seg)}, segments...)
	}

	prefix := c.Combination().URISegment()
	if len(segments) == 0 {
		if prefix == "" {
			return "/", nil
		}
		return "/" + url.PathEscape(prefix), nil
	}
	if prefix != "" {
		segments = append([]string{url.PathEscape(prefix)}, segments...)
	}
	return "/" + strings.Join(segments, "/") + s.suffix, nil
}

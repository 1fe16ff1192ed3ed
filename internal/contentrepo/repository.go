package contentrepo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// RootNodeType is the type assigned to a root node that is not stored.
const RootNodeType = "unstructured"

// Repository creates content contexts over a store.
type Repository struct {
	store Store
	types *nodetypes.Manager
}

// NewRepository returns a repository reading from store and typing nodes
// with types.
func NewRepository(store Store, types *nodetypes.Manager) *Repository {
	return &Repository{store: store, types: types}
}

// Store returns the underlying store.
func (r *Repository) Store() Store { return r.store }

// NodeTypes returns the node type manager.
func (r *Repository) NodeTypes() *nodetypes.Manager { return r.types }

// WorkspaceChain returns the named workspace followed by its bases.
func (r *Repository) WorkspaceChain(ctx context.Context, name string) ([]Workspace, error) {
	var chain []Workspace
	seen := map[string]bool{}
	for cur := name; cur != ""; {
		if seen[cur] {
			return nil, fmt.Errorf("workspace %s: base workspaces loop at %s", name, cur)
		}
		seen[cur] = true

		ws, err := r.store.Workspace(ctx, cur)
		if err != nil {
			if errors.Is(err, ErrWorkspaceNotFound) && cur != name {
				return nil, fmt.Errorf("base of workspace %s: %w", name, err)
			}
			return nil, err
		}
		chain = append(chain, ws)
		cur = ws.Base
	}
	return chain, nil
}

type candidate struct {
	record    *NodeRecord
	workspace int
	dimension []int
}

func (c candidate) preferredTo(o candidate) bool {
	if c.workspace != o.workspace {
		return c.workspace < o.workspace
	}
	for i := range c.dimension {
		if c.dimension[i] != o.dimension[i] {
			return c.dimension[i] < o.dimension[i]
		}
	}
	return false
}

// CreateContext resolves the tree visible from workspace in combination.
// Per node identifier the variant of the nearest workspace wins, then the
// variant whose dimension values come first in the fallback order. Removed
// variants hide the node; nodes whose parent is not visible are dropped.
func (r *Repository) CreateContext(ctx context.Context, workspace string, combination dimensions.Combination) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chain, err := r.WorkspaceChain(ctx, workspace)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(chain))
	position := make(map[string]int, len(chain))
	for i, ws := range chain {
		names[i] = ws.Name
		position[ws.Name] = i
	}

	records, err := r.store.NodeRecords(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("loading nodes of workspace %s: %w", workspace, err)
	}

	best := make(map[string]candidate)
	for i := range records {
		rec := &records[i]
		wsPos, ok := position[rec.Workspace]
		if !ok {
			continue
		}
		dimPos, ok := matchDimensions(rec, combination)
		if !ok {
			continue
		}
		cand := candidate{record: rec, workspace: wsPos, dimension: dimPos}
		if cur, seen := best[rec.Identifier]; !seen || cand.preferredTo(cur) {
			best[rec.Identifier] = cand
		}
	}

	visible := make([]*NodeRecord, 0, len(best))
	for _, cand := range best {
		if !cand.record.Removed {
			visible = append(visible, cand.record)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		di, dj := depth(visible[i].Path), depth(visible[j].Path)
		if di != dj {
			return di < dj
		}
		if visible[i].Path != visible[j].Path {
			return visible[i].Path < visible[j].Path
		}
		return visible[i].Identifier < visible[j].Identifier
	})

	c := &Context{
		workspace:   chain[0],
		combination: combination,
		byPath:      make(map[string]*Node, len(visible)+1),
		byID:        make(map[string]*Node, len(visible)+1),
	}

	dropped := 0
	for _, rec := range visible {
		p := path.Clean("/" + strings.TrimPrefix(rec.Path, "/"))
		if p == "/" {
			if c.root == nil {
				c.root = r.newNode(c, rec, p)
			}
			continue
		}
		if c.root == nil {
			c.root = r.syntheticRoot(c)
		}
		parent := c.byPath[path.Dir(p)]
		if parent == nil || c.byPath[p] != nil {
			dropped++
			continue
		}
		n := r.newNode(c, rec, p)
		n.parent = parent
		parent.children = append(parent.children, n)
	}
	if c.root == nil {
		c.root = r.syntheticRoot(c)
	}
	sortChildren(c.root)

	logger.Debug("Created content context",
		logger.String("workspace", workspace),
		logger.String("dimensions", combination.Key()),
		logger.Int("nodes", len(c.byPath)),
		logger.Int("dropped", dropped))
	return c, nil
}

func (r *Repository) newNode(c *Context, rec *NodeRecord, p string) *Node {
	n := &Node{
		ctx:        c,
		identifier: rec.Identifier,
		path:       p,
		typeName:   rec.NodeType,
		properties: rec.Properties,
		dimensions: rec.Dimensions,
		index:      rec.Index,
	}
	if n.properties == nil {
		n.properties = map[string]interface{}{}
	}
	if r.types != nil {
		if nt, err := r.types.NodeType(rec.NodeType); err == nil {
			n.nodeType = nt
		}
	}
	c.byPath[p] = n
	if n.identifier != "" {
		c.byID[n.identifier] = n
	}
	return n
}

func (r *Repository) syntheticRoot(c *Context) *Node {
	return r.newNode(c, &NodeRecord{Path: "/", NodeType: RootNodeType}, "/")
}

// matchDimensions returns the fallback position of the record's value per
// axis. Records without a value for an axis match after every listed value.
func matchDimensions(rec *NodeRecord, combination dimensions.Combination) ([]int, bool) {
	pos := make([]int, len(combination.Axes))
	for i, axis := range combination.Axes {
		values := rec.Dimensions[axis.Name]
		if len(values) == 0 {
			pos[i] = len(axis.Values)
			continue
		}
		found := -1
		for j, v := range axis.Values {
			if v == values[0] {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		pos[i] = found
	}
	return pos, true
}

func depth(p string) int {
	p = strings.Trim(p, "/")
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}

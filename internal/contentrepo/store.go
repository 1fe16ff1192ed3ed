// Package contentrepo resolves stored node variants into content contexts:
// one tree of nodes as seen from a workspace and a dimension combination.
package contentrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrWorkspaceNotFound is returned when a workspace name does not resolve.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrSiteNotFound is returned when no site is registered for a node name.
	ErrSiteNotFound = errors.New("site not found")
	// ErrSiteExists is returned when a site node name is registered twice.
	ErrSiteExists = errors.New("site already exists")
	// ErrUnknownDriver is returned by Open for unregistered store drivers.
	ErrUnknownDriver = errors.New("unknown repository driver")
)

// LiveWorkspace is the name of the published workspace.
const LiveWorkspace = "live"

// Workspace is a named layer of node variants. A workspace without a base is
// a root workspace; all others see their base's content beneath their own.
type Workspace struct {
	Name  string `yaml:"name" json:"name"`
	Base  string `yaml:"base,omitempty" json:"base,omitempty"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
}

// Site maps a site node below /sites to the package providing its resources.
type Site struct {
	NodeName   string `yaml:"nodeName" json:"nodeName"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	PackageKey string `yaml:"packageKey,omitempty" json:"packageKey,omitempty"`
}

// NodeRecord is one stored variant of a node: its state in a single
// workspace for a single set of dimension values.
type NodeRecord struct {
	Identifier string                 `yaml:"identifier" json:"identifier"`
	Path       string                 `yaml:"path" json:"path"`
	NodeType   string                 `yaml:"nodeType" json:"nodeType"`
	Workspace  string                 `yaml:"workspace" json:"workspace"`
	Dimensions map[string][]string    `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Properties map[string]interface{} `yaml:"properties,omitempty" json:"properties,omitempty"`
	Index      int                    `yaml:"index,omitempty" json:"index,omitempty"`
	Removed    bool                   `yaml:"removed,omitempty" json:"removed,omitempty"`
}

// DimensionsHash identifies the dimension values of a record independent of
// map order, e.g. "country=at&language=de".
func (r NodeRecord) DimensionsHash() string {
	names := make([]string, 0, len(r.Dimensions))
	for name := range r.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strings.Join(r.Dimensions[name], ","))
	}
	return strings.Join(parts, "&")
}

// Store is the persistence behind a repository.
type Store interface {
	// Workspaces returns every workspace in store order.
	Workspaces(ctx context.Context) ([]Workspace, error)
	// Workspace returns the named workspace or ErrWorkspaceNotFound.
	Workspace(ctx context.Context, name string) (Workspace, error)
	// NodeRecords returns all records stored in the given workspaces.
	NodeRecords(ctx context.Context, workspaces []string) ([]NodeRecord, error)
	// Sites returns every registered site in store order.
	Sites(ctx context.Context) ([]Site, error)
	// Site returns the site for a node name or ErrSiteNotFound.
	Site(ctx context.Context, nodeName string) (Site, error)
	// AddWorkspace creates or replaces a workspace.
	AddWorkspace(ctx context.Context, ws Workspace) error
	// AddSite registers a site; ErrSiteExists if the node name is taken.
	AddSite(ctx context.Context, site Site) error
	// PutNodes inserts or replaces records keyed by identifier, workspace
	// and dimension values.
	PutNodes(ctx context.Context, records []NodeRecord) error
	Close() error
}

// OpenFunc opens a store at path.
type OpenFunc func(path string) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]OpenFunc{}
)

// RegisterDriver makes a store implementation available to Open. It is
// called from the init function of each store package.
func RegisterDriver(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if open == nil {
		panic("contentrepo: RegisterDriver open is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("contentrepo: RegisterDriver called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers returns the registered driver names sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the store at path with the named driver.
func Open(driver, path string) (Store, error) {
	driversMu.RLock()
	open, ok := drivers[driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDriver, driver, Drivers())
	}
	return open(path)
}

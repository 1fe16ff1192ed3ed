package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/console"
	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
	"github.com/fulmenhq/janitor/internal/report"
	"github.com/fulmenhq/janitor/internal/routing"
	"github.com/fulmenhq/janitor/pkg/config"
	"github.com/fulmenhq/janitor/pkg/logger"

	// Store drivers register themselves.
	_ "github.com/fulmenhq/janitor/internal/contentrepo/sqlstore"
	_ "github.com/fulmenhq/janitor/internal/contentrepo/yamlstore"
)

// app bundles the collaborators a command runs against.
type app struct {
	cfg        *config.Config
	store      contentrepo.Store
	repo       *contentrepo.Repository
	types      *nodetypes.Manager
	combinator *dimensions.Combinator
	uris       *routing.NodeURIService
	console    *console.Console
}

// loadApp reads the configuration and opens everything a command needs.
// The caller must Close the returned app.
func loadApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(config.Options{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logger.Debug("Loaded configuration", logger.String("file", cfg.File))
	}

	pps, err := nodetypes.Postprocessors(cfg.NodeTypes.Postprocessors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	types, err := nodetypes.Load(cfg.NodeTypePaths(), pps...)
	if err != nil {
		if errors.Is(err, nodetypes.ErrInvalidDefinition) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading node types: %v", config.ErrInvalidConfig, err)
	}

	uris, err := routing.NewNodeURIService(routing.Options{
		BaseURI:      cfg.Routing.BaseURI,
		Suffix:       cfg.Routing.Suffix,
		DocumentType: cfg.NodeTypes.DocumentType,
		ShortcutType: cfg.NodeTypes.ShortcutType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	repoPath := cfg.RepositoryPath()
	store, err := contentrepo.Open(cfg.Repository.Driver, repoPath)
	if errors.Is(err, contentrepo.ErrUnknownDriver) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStorage, err)
	}
	logger.Debug("Opened content repository",
		logger.String("driver", cfg.Repository.Driver),
		logger.String("path", repoPath),
		logger.Int("nodeTypes", len(types.NodeTypes(true))))

	noColor, _ := cmd.Flags().GetBool("no-color")
	out := cmd.OutOrStdout()
	interactive := console.ProgressWriter(out) != nil

	return &app{
		cfg:        cfg,
		store:      store,
		repo:       contentrepo.NewRepository(store, types),
		types:      types,
		combinator: dimensions.FromConfig(cfg.Dimensions),
		uris:       uris,
		console: console.New(out, console.Options{
			Color:    interactive && !noColor,
			Progress: console.ProgressWriter(cmd.ErrOrStderr()),
		}),
	}, nil
}

// Close releases the content repository.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Closing content repository failed", logger.Err(err))
	}
}

// concurrency is the number of cells scanned at once.
func (a *app) concurrency() int {
	return max(a.cfg.Report.Concurrency, 1)
}

// scan resolves a workspace selector into the cells of the scan space.
func (a *app) scan(ctx context.Context, selector string) ([]report.Cell, error) {
	refs, err := report.ResolveWorkspaces(ctx, a.store, selector)
	if err != nil {
		return nil, err
	}
	return report.Cells(refs, a.combinator.AllowedCombinations()), nil
}

// workspaceCells looks up a single workspace by its exact name and returns
// its cells, one per allowed dimension combination. An unknown name yields
// no cells and a warning.
func (a *app) workspaceCells(ctx context.Context, name string) ([]report.Cell, error) {
	ref := report.WorkspaceRef{Name: name}
	ws, err := a.store.Workspace(ctx, name)
	switch {
	case errors.Is(err, contentrepo.ErrWorkspaceNotFound):
	case err != nil:
		return nil, fmt.Errorf("looking up workspace %q: %w", name, err)
	default:
		ref.Workspace = &ws
	}
	return report.Cells([]report.WorkspaceRef{ref}, a.combinator.AllowedCombinations()), nil
}

// instancesOf matches the nodes of typeName, including sub types, in a cell.
func (a *app) instancesOf(typeName string) report.MatchFunc[*contentrepo.Node] {
	return func(ctx context.Context, cell report.Cell) ([]*contentrepo.Node, error) {
		c, err := a.repo.CreateContext(ctx, cell.Workspace.Name, cell.Combination)
		if err != nil {
			return nil, err
		}
		return c.InstancesOf(typeName), nil
	}
}

// instanceCounter returns a CountFunc that builds each cell's content
// context once and counts the nodes of a type, including sub types, in it.
func (a *app) instanceCounter() report.CountFunc {
	var (
		mu       sync.Mutex
		contexts = map[string]*contentrepo.Context{}
	)
	return func(ctx context.Context, cell report.Cell, typeName string) (int, error) {
		key := cell.Workspace.Name + ";" + cell.Combination.Key()
		mu.Lock()
		c, ok := contexts[key]
		mu.Unlock()
		if !ok {
			var err error
			c, err = a.repo.CreateContext(ctx, cell.Workspace.Name, cell.Combination)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			contexts[key] = c
			mu.Unlock()
		}
		return len(c.InstancesOf(typeName)), nil
	}
}

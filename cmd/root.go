/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
	"github.com/fulmenhq/janitor/internal/janitor"
	"github.com/fulmenhq/janitor/internal/ops"
	"github.com/fulmenhq/janitor/internal/report"
	"github.com/fulmenhq/janitor/pkg/buildinfo"
	"github.com/fulmenhq/janitor/pkg/config"
	"github.com/fulmenhq/janitor/pkg/exitcode"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// errUsage marks malformed command lines: wrong argument counts and bad flags.
var errUsage = errors.New("invalid usage")

// errStorage marks a content repository that could not be opened.
var errStorage = errors.New("content repository unavailable")

// subcommand describes one registered command.
type subcommand struct {
	group   ops.CommandGroup
	mutates bool
	build   func() *cobra.Command
}

var subcommands = []subcommand{
	{group: ops.GroupReport, build: newUnusedCommand},
	{group: ops.GroupReport, build: newOccurrencesCommand},
	{group: ops.GroupReport, build: newNodeTypesCommand},
	{group: ops.GroupReport, build: newWhereAllowedCommand},
	{group: ops.GroupReport, build: newURIsCommand},
	{group: ops.GroupJanitor, build: newShowCommand},
	{group: ops.GroupJanitor, mutates: true, build: newCopySiteCommand},
	{group: ops.GroupSupport, mutates: true, build: newImportCommand},
	{group: ops.GroupSupport, build: newVersionCommand},
}

// newRootCommand creates a fresh root command instance whose help screen is
// grouped by the commands recorded in reg.
// Tests create isolated trees with their own registry.
func newRootCommand(reg *ops.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Reports and housekeeping for a Neos content repository",
		Long: `Janitor inspects and tidies a Neos content repository snapshot.
It reports unused node types, finds occurrences of a type across workspaces
and dimensions, lists node type hierarchies and canonical URIs, and copies sites.

Examples:
   janitor unused --workspaces=live,user-admin
   janitor occurrences Acme.Site:Teaser --limit=10
   janitor uris --verbose
   janitor show /sites/acme --workspace=live`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file (default: janitor.yaml in . or $HOME/.janitor)")
	pf.String("repository", "", "Content repository path (overrides repository.path)")
	pf.String("driver", "", "Content repository driver: "+fmt.Sprint(contentrepo.Drivers()))
	pf.StringSlice("node-types", nil, "Node type definition files or directories")
	pf.Int("concurrency", 1, "Number of workspace/dimension cells scanned in parallel")
	pf.String("base-uri", "", "Base URI for generated links (overrides routing.base_uri)")
	pf.String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	pf.Bool("log-json", false, "Output logs in JSON format")
	pf.Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("janitor {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if c != c.Root() {
			c.Println(c.UsageString())
			return
		}
		c.Println(c.Long)
		c.Println()
		for _, group := range ops.HelpOrder {
			regs := reg.GetCommandsByGroup(group)
			if len(regs) == 0 {
				continue
			}
			c.Printf("%s:\n", group.Title())
			for _, r := range regs {
				c.Printf("  %-14s %s\n", r.Name, r.Description)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.LocalFlags().FlagUsages())
	})

	return cmd
}

// registerSubcommands adds fresh instances of all subcommands to root and
// records them in reg.
func registerSubcommands(root *cobra.Command, reg *ops.Registry) {
	for _, sc := range subcommands {
		c := sc.build()
		root.AddCommand(c)
		if err := reg.Register(&ops.CommandRegistration{
			Name:        c.Name(),
			Group:       sc.group,
			Command:     c,
			Description: c.Short,
			Mutates:     sc.mutates,
		}); err != nil {
			logger.Error("Failed to register command", logger.String("command", c.Name()), logger.Err(err))
		}
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand(ops.GetRegistry())

func init() {
	registerSubcommands(rootCmd, ops.GetRegistry())
}

// Execute runs the root command and exits with the code matching the error.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, contentrepo.ErrUnknownDriver),
		errors.Is(err, nodetypes.ErrInvalidDefinition):
		return exitcode.ConfigError
	case errors.Is(err, errUsage),
		errors.Is(err, report.ErrInvalidArgument),
		errors.Is(err, janitor.ErrInvalidArgument),
		errors.Is(err, nodetypes.ErrNodeTypeNotFound):
		return exitcode.ArgumentError
	case errors.Is(err, errStorage):
		return exitcode.StorageError
	default:
		return exitcode.GeneralError
	}
}

// exactArgs is cobra.ExactArgs with usage errors marked as such.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("log-json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return logger.Initialize(logger.Config{
		Level:     logger.ParseLevel(logLevel),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "janitor",
		Output:    cmd.ErrOrStderr(),
	})
}

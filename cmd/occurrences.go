package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/report"
)

func newOccurrencesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occurrences <nodeType>",
		Short: "Show where nodes of a type are used",
		Long: `Occurrences lists the context path, closest document and its URI of
every node of the given type, sub types included. Matches are numbered over
all selected workspaces and dimension combinations; --start-at and --limit
select the window that is printed.`,
		Args: exactArgs(1),
		RunE: runOccurrences,
	}
	cmd.Flags().String("workspaces", report.AllWorkspaces, "Comma-separated workspaces, or _all")
	cmd.Flags().Int("limit", 5, "Maximum number of occurrences to print")
	cmd.Flags().Int("start-at", 1, "Number of the first occurrence to print")
	return cmd
}

func runOccurrences(cmd *cobra.Command, args []string) error {
	typeName := args[0]
	selector, _ := cmd.Flags().GetString("workspaces")
	limit, _ := cmd.Flags().GetInt("limit")
	startAt, _ := cmd.Flags().GetInt("start-at")

	window := report.Window{StartAt: startAt, Limit: limit}
	if err := window.Validate(); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	nt, err := a.types.NodeType(typeName)
	if err != nil {
		return err
	}

	out := a.console
	report.Headline(out, "Occurrences of %s", nt.Name())

	ctx := cmd.Context()
	cells, err := a.scan(ctx, selector)
	if err != nil {
		return err
	}

	documentType := a.cfg.NodeTypes.DocumentType
	res, err := report.Paginate(ctx, cells, a.instancesOf(nt.Name()), window,
		func(m report.Match[*contentrepo.Node]) error {
			report.OutputOccurrence(out, report.Locate(ctx, a.uris, documentType, m))
			return nil
		},
		report.PaginateOptions{Concurrency: a.concurrency()},
	)
	if err != nil {
		return err
	}
	report.OutputPageSummary(out, res)
	return nil
}

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/report"
	"github.com/fulmenhq/janitor/pkg/logger"
)

func newUnusedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unused",
		Short: "List node types with at most --threshold nodes",
		Long: `Unused counts the nodes of every sub type of --super-type, abstract types
included, in each selected workspace and every allowed dimension combination,
and lists the types whose total is at or below --threshold.`,
		Args: exactArgs(0),
		RunE: runUnused,
	}
	cmd.Flags().Int("threshold", 0, "Highest node count a type may have to be reported")
	cmd.Flags().String("super-type", "", "Super type whose sub types are checked (default: nodetypes.base_type)")
	cmd.Flags().String("workspaces", "live", "Comma-separated workspaces, or _all")
	return cmd
}

func runUnused(cmd *cobra.Command, _ []string) error {
	threshold, _ := cmd.Flags().GetInt("threshold")
	superType, _ := cmd.Flags().GetString("super-type")
	selector, _ := cmd.Flags().GetString("workspaces")

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if superType == "" {
		superType = a.cfg.NodeTypes.BaseType
	}

	types, err := a.types.SubNodeTypes(superType, true)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(types))
	for _, nt := range types {
		names = append(names, nt.Name())
	}

	ctx := cmd.Context()
	cells, err := a.scan(ctx, selector)
	if err != nil {
		return err
	}

	out := a.console
	for _, cell := range cells {
		report.OutputCell(out, cell)
	}
	out.ProgressStart(len(cells)*len(names), "Counting nodes")
	start := time.Now()
	tally, err := report.CountOccurrences(ctx, names, cells, a.instanceCounter(), report.CountOptions{
		Concurrency: a.concurrency(),
		Progress:    func(int) { out.ProgressAdvance(1) },
	})
	out.ProgressFinish()
	if err != nil {
		return err
	}
	out.NewLine()
	logger.Debug("Counted nodes",
		logger.Int("types", len(names)),
		logger.Int("cells", len(cells)),
		logger.Duration("elapsed", time.Since(start)))
	if logger.Enabled(logger.TraceLevel) {
		for _, e := range tally.Entries() {
			logger.Trace("Node type count", logger.String("type", e.Name), logger.Int("count", e.Count))
		}
	}

	report.Headline(out, "Unused NodeTypes")
	report.OutputUnused(out, report.FilterAtOrBelow(tally, threshold))
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/report"
)

func newWhereAllowedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "where-allowed <nodeType>",
		Short: "List the node types a type may be created in",
		Long: `Where-allowed prints every non-abstract node type that allows the given
type as a child node (bold), and every type with auto-created child nodes that
allow it (followed by the indented child node names).`,
		Args: exactArgs(1),
		RunE: runWhereAllowed,
	}
	cmd.Flags().String("filter", "", "Glob the listed node type names must match")
	return cmd
}

func runWhereAllowed(cmd *cobra.Command, args []string) error {
	typeName := args[0]
	pattern, _ := cmd.Flags().GetString("filter")

	filter, err := report.NewFilter(pattern)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	placements, err := report.WhereAllowed(a.types, typeName, filter)
	if err != nil {
		return err
	}

	report.OutputPlacements(a.console, placements)
	return nil
}

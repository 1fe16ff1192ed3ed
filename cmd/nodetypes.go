package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/report"
)

func newNodeTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node-types",
		Short: "List the sub types of a node type",
		Args:  exactArgs(0),
		RunE:  runNodeTypes,
	}
	cmd.Flags().String("super-type", "", "Super type to list the sub types of (default: nodetypes.base_type)")
	cmd.Flags().String("filter", "", "Glob the node type names must match, e.g. 'Acme.Site:Content.*'")
	cmd.Flags().Bool("abstract", false, "Include abstract node types")
	cmd.Flags().Bool("oneline", false, "Print only the node type names")
	return cmd
}

func runNodeTypes(cmd *cobra.Command, _ []string) error {
	superType, _ := cmd.Flags().GetString("super-type")
	pattern, _ := cmd.Flags().GetString("filter")
	abstract, _ := cmd.Flags().GetBool("abstract")
	oneline, _ := cmd.Flags().GetBool("oneline")

	filter, err := report.NewFilter(pattern)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if superType == "" {
		superType = a.cfg.NodeTypes.BaseType
	}

	types, err := report.SubTypes(a.types, superType, abstract, filter)
	if err != nil {
		return err
	}

	out := a.console
	report.Headline(out, "All SubNodeTypes of %s", superType)
	for _, nt := range types {
		report.OutputNodeType(out, nt, oneline)
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/report"
	"github.com/fulmenhq/janitor/pkg/logger"
)

func newURIsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uris",
		Short: "List the canonical URIs of all documents of a type",
		Long: `Uris prints the URI of every node of a document type, sub types included,
in one workspace for each allowed dimension combination. Nodes whose URI
cannot be built are counted per combination; --verbose prints the reason.`,
		Args: exactArgs(0),
		RunE: runURIs,
	}
	cmd.Flags().String("node-type", "", "Document type to list (default: nodetypes.document_type)")
	cmd.Flags().String("filter", "", "Glob the node type names of listed nodes must match")
	cmd.Flags().String("workspace", "live", "Workspace to list")
	cmd.Flags().Bool("verbose", false, "Print an error line for every node without URI")
	cmd.Flags().Int("limit", 0, "Maximum number of nodes over all combinations, 0 for no limit")
	return cmd
}

func runURIs(cmd *cobra.Command, _ []string) error {
	typeName, _ := cmd.Flags().GetString("node-type")
	pattern, _ := cmd.Flags().GetString("filter")
	workspace, _ := cmd.Flags().GetString("workspace")
	verbose, _ := cmd.Flags().GetBool("verbose")
	limit, _ := cmd.Flags().GetInt("limit")

	filter, err := report.NewFilter(pattern)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	documentType := a.cfg.NodeTypes.DocumentType
	if typeName == "" {
		typeName = documentType
	}

	out := a.console
	report.Headline(out, "All Uris for %s", typeName)

	nt, err := a.types.NodeType(typeName)
	if err != nil {
		return err
	}
	if !nt.IsOfType(documentType) {
		out.OutputLine("<error>%s does not inherit from %s</error>", nt.Name(), documentType)
		return nil
	}

	ctx := cmd.Context()
	cells, err := a.workspaceCells(ctx, workspace)
	if err != nil {
		return err
	}
	res, err := report.ListURIs(ctx, out, cells, a.instancesOf(nt.Name()), a.uris, report.URIOptions{
		Limit:   limit,
		Verbose: verbose,
		Filter:  filter,
	})
	if err != nil {
		return err
	}
	logger.Debug("Listed uris", logger.Int("nodes", res.Nodes), logger.Int("errors", res.Errors))
	return nil
}

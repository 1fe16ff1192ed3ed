package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/janitor"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot>",
		Short: "Import a YAML content snapshot into the repository",
		Long: `Import copies the workspaces, sites and nodes of a YAML snapshot into the
configured content repository. Nodes with the same identifier, workspace and
dimensions are replaced; sites that are already registered are kept.`,
		Args: exactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := janitor.NewService(a.repo, a.combinator, a.console)
	res, err := svc.Import(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a.console.OutputLine("Imported %d workspaces, %d sites and %d nodes from %s",
		res.Workspaces, res.Sites, res.Nodes, args[0])
	return nil
}

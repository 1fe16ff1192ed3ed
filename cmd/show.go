package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/janitor"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <nodePath>",
		Short: "Show label, type, properties and children of a node",
		Long: `Show prints a node in the default dimensions of a workspace. The node is
addressed by its absolute path, or by its identifier prefixed with "#".`,
		Args: exactArgs(1),
		RunE: runShow,
	}
	cmd.Flags().String("workspace", "live", "Workspace to read the node from")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	workspace, _ := cmd.Flags().GetString("workspace")

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := janitor.NewService(a.repo, a.combinator, a.console)
	return svc.Show(cmd.Context(), args[0], workspace)
}

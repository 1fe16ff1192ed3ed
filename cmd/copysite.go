package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/internal/janitor"
	"github.com/fulmenhq/janitor/pkg/logger"
)

func newCopySiteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-site <source> <target>",
		Short: "Copy a site to a new site node name",
		Long: `Copy-site copies the live content of /sites/<source> to /sites/<target> in
every allowed dimension combination and registers the new site with the
package key of the source site. Copied nodes get new identifiers.

The copy is not transactional: nodes written before a failure remain.`,
		Args: exactArgs(2),
		RunE: runCopySite,
	}
}

func runCopySite(cmd *cobra.Command, args []string) error {
	source, target := args[0], args[1]

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := janitor.NewService(a.repo, a.combinator, a.console)
	res, err := svc.CopySite(cmd.Context(), source, target)
	if err != nil {
		return err
	}
	logger.Info("Copied site",
		logger.String("source", source),
		logger.String("target", target),
		logger.Int("combinations", res.Combinations),
		logger.Int("nodes", res.Nodes),
		logger.Int("variants", res.Variants))
	a.console.OutputLine("Successfully copied %s to %s", source, target)
	return nil
}

/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/janitor/pkg/buildinfo"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show janitor version and build information",
		Args:  exactArgs(0),
		RunE:  runVersion,
	}
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	info := buildinfo.Current()
	out := cmd.OutOrStdout()

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "janitor %s\n", info.Version)
	if info.ModuleVersion != "" {
		fmt.Fprintf(out, "Module: %s\n", info.ModuleVersion)
	}
	fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "OS/Arch: %s\n", info.Platform)
	return nil
}

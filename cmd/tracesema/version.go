package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tracesema/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show tracesema build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := strings.TrimSpace(version.Version)
		if v == "" {
			v = "dev"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", "tracesema", color.New(color.FgGreen, color.Bold).Sprint(v))
		if commit := strings.TrimSpace(version.GitCommit); commit != "" {
			fmt.Fprintf(out, "commit: %s\n", commit)
		}
		if date := strings.TrimSpace(version.BuildDate); date != "" {
			fmt.Fprintf(out, "built:  %s\n", date)
		}
		return nil
	},
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"tracesema/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tracesema",
	Short: "Semantic analyzer for a kernel-tracing probe language",
	Long:  "tracesema resolves names, checks types, and validates kernel-feature usage in probe programs, without attaching to anything.",
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tracepointsCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum diagnostics retained per file")
	rootCmd.PersistentFlags().String("events-root", "", "tracefs events directory (default: autodetected)")
	rootCmd.PersistentFlags().Bool("verbose", false, "include underlying OS errors in tracepoint diagnostics")
	rootCmd.PersistentFlags().String("config", "", "path to a tracesema.toml config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

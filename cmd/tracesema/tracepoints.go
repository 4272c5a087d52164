package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tracesema/internal/diag"
	"tracesema/internal/diskcache"
	"tracesema/internal/source"
	"tracesema/internal/tpformat"
	"tracesema/internal/types"
)

var tracepointsCmd = &cobra.Command{
	Use:   "tracepoints <category:event> [category:event...]",
	Short: "Resolve tracefs format files and print the synthesized record layout",
	Long:  "Resolves one or more `category:event` or `category:event*` wildcard targets against the local tracefs tree and prints the record tracesema would bind `args` to, without needing a probe program at all.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracepoints,
}

func runTracepoints(cmd *cobra.Command, args []string) error {
	eventsRoot, _ := cmd.Flags().GetString("events-root")
	verbose, _ := cmd.Flags().GetBool("verbose")
	colorMode, _ := cmd.Flags().GetString("color")
	if eventsRoot == "" {
		eventsRoot = tpformat.DefaultEventsRoot()
	}

	targets := make([]tpformat.Target, 0, len(args))
	for _, a := range args {
		parts := strings.SplitN(a, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid target %q, want category:event", a)
		}
		targets = append(targets, tpformat.Target{Category: parts[0], Event: parts[1]})
	}

	var cache *diskcache.Cache
	if dir, err := diskcache.DefaultDir(); err == nil {
		if c, err := diskcache.Open(dir); err == nil {
			cache = c
		}
	}

	fs := source.NewFileSet()
	structs := types.NewInterner()
	bag := diag.NewBag(64)
	tpformat.NewParser(eventsRoot, structs, bag, verbose).WithCache(cache).ParseAll(targets)

	for _, s := range structs.All() {
		printStruct(cmd, s)
	}

	bag.SortBySpan()
	diag.NewRenderer(fs, cmd.OutOrStdout(), colorMode).RenderAll(cmd.OutOrStdout(), bag)
	if bag.HasErrors() {
		return fmt.Errorf("tracepoint resolution failed")
	}
	return nil
}

func printStruct(cmd *cobra.Command, s *types.Struct) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s {\n", s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(out, "  %-24s %-12s offset=%d\n", f.Name, f.Type.String(), f.Offset)
	}
	fmt.Fprintf(out, "} // size=%d\n\n", s.Size())
}

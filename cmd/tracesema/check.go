package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tracesema/internal/config"
	"tracesema/internal/diag"
	"tracesema/internal/diskcache"
	"tracesema/internal/pass"
	"tracesema/internal/sema"
	"tracesema/internal/source"
	"tracesema/internal/tpformat"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.bt> [file.bt...]",
	Short: "Run name resolution and type checking over one or more probe programs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

// runCheck fans out one lex/parse/tracepoint/sema pipeline per input file
// across an errgroup-bounded worker pool; each file's own pipeline stays
// strictly single-threaded, only the across-file fan-out is concurrent.
func runCheck(cmd *cobra.Command, args []string) error {
	colorMode, _ := cmd.Flags().GetString("color")
	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	eventsRoot, _ := cmd.Flags().GetString("events-root")
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if eventsRoot == "" {
		eventsRoot = tpformat.DefaultEventsRoot()
	}

	var cache *diskcache.Cache
	if dir, err := diskcache.DefaultDir(); err == nil {
		if c, err := diskcache.Open(dir); err == nil {
			cache = c
		}
	}

	fs := source.NewFileSet()
	contexts := make([]*pass.Context, len(args))

	jobs := runtime.GOMAXPROCS(0)
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(args)))

	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			fid := fs.AddFile(path, src)
			bag := diag.NewBag(maxDiagnostics)

			ctx := pass.NewContext(fs, fid, src, bag)
			ctx.Config = cfg
			ctx.Features = sema.AllFeatures()

			m := pass.NewManager()
			pass.StandardPipeline(m, eventsRoot, verbose, cache)
			if err := m.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			contexts[i] = ctx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	renderer := diag.NewRenderer(fs, cmd.OutOrStdout(), colorMode)
	hadErrors := false
	totalDiags := 0
	for _, ctx := range contexts {
		ctx.Bag.SortBySpan()
		items := ctx.Bag.Items()
		if maxDiagnostics >= 0 && len(items) > maxDiagnostics {
			items = items[:maxDiagnostics]
		}
		for _, d := range items {
			renderer.Render(cmd.OutOrStdout(), d)
		}
		totalDiags += ctx.Bag.Len()
		if ctx.Bag.HasErrors() {
			hadErrors = true
		}
	}
	if hadErrors {
		return fmt.Errorf("check failed: errors found across %d diagnostic(s)", totalDiags)
	}
	return nil
}

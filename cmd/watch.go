package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/halint/internal/config"
	"github.com/conneroisu/halint/internal/pipeline"
	"github.com/conneroisu/halint/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run validation whenever configuration files change",
	Long: `Watch validates the configuration tree, then watches it for YAML
edits and re-runs the syntax and reference checks after each debounced batch
of changes. The official check is skipped in watch mode since it is too slow
for an edit loop.

Stop with Ctrl-C.`,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	out := cmd.OutOrStdout()

	runOnce := func(ctx context.Context) {
		options := pipelineOptions(cfg, stageSelection{skipOfficial: true})
		result := pipeline.New(options).Run(ctx)

		fmt.Fprintf(out, "--- %s ---\n", time.Now().Format(time.TimeOnly))
		if err := renderReport(result, cfg.Output.Format, out); err != nil {
			logger.Error(ctx, err, "render failed")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileWatcher, err := watcher.NewFileWatcher(
		time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger,
	)
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.YAMLFilter)
	fileWatcher.AddFilter(watcher.NoStorageFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Debug(ctx, "change detected", "path", event.Path, "type", event.Type.String())
		}
		runOnce(ctx)

		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.Paths.ConfigDir); err != nil {
		return err
	}

	runOnce(ctx)
	fileWatcher.Start(ctx)

	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s for changes\n", cfg.Paths.ConfigDir)
	<-ctx.Done()

	return nil
}

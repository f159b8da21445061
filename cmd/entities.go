package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/halint/internal/config"
	"github.com/conneroisu/halint/internal/registry"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Summarize the entity registry by domain",
	Long: `Entities loads the entity registry snapshot from the storage
directory and prints per-domain counts with a few example ids. Useful for
checking what the reference checks will resolve against.`,
	SilenceUsage: true,
	RunE:         runEntities,
}

func init() {
	rootCmd.AddCommand(entitiesCmd)
}

func runEntities(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	snapshot, err := registry.Load(cfg.Paths.StorageDir)
	if err != nil {
		return err
	}

	if !snapshot.Loaded(registry.RefEntity) {
		return fmt.Errorf("entity registry not found in %s", cfg.Paths.StorageDir)
	}

	summaries := snapshot.Summarize()
	out := cmd.OutOrStdout()

	if cfg.Output.Format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(summaries)
	}

	fmt.Fprintf(out, "%d entities in %d domains\n\n", snapshot.Count(registry.RefEntity), len(summaries))
	for _, summary := range summaries {
		fmt.Fprintf(out, "%-24s %4d total, %d enabled, %d disabled\n",
			summary.Domain, summary.Count, summary.Enabled, summary.Disabled)
		if len(summary.Examples) > 0 {
			fmt.Fprintf(out, "%-24s      e.g. %s\n", "", strings.Join(summary.Examples, ", "))
		}
	}

	return nil
}

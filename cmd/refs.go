package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Run only the entity/device/area reference checks",
	Long: `Refs collects the configuration tree through its include graph,
extracts every entity, device, and area reference (including references
inside template expressions), and resolves each one against the registry
snapshots under the storage directory.

The conventional section files included directly from configuration.yaml
(automations.yaml, scripts.yaml, scenes.yaml, groups.yaml, customize.yaml)
are treated as empty when absent; any other missing include fails its
section.

A reference kind whose registry file is absent is skipped and reported once
as an info finding instead of flooding the report with unknowns.`,
	SilenceUsage: true,
	RunE:         runRefs,
}

func init() {
	flags := refsCmd.Flags()
	flags.Bool("template-unknown-blocks", false, "treat unknown references inside templates as errors")

	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, _ []string) error {
	_ = viper.BindPFlag("references.template_unknown_blocks", cmd.Flags().Lookup("template-unknown-blocks"))

	return runValidation(cmd, stageSelection{skipSyntax: true, skipOfficial: true})
}

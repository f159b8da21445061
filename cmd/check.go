package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full validation pipeline",
	Long: `Check runs every validation stage in order: YAML syntax and structure,
entity/device/area reference resolution against the registry snapshots, and
the official configuration check when the tool is installed.

The conventional section files included directly from configuration.yaml
(automations.yaml, scripts.yaml, scenes.yaml, groups.yaml, customize.yaml)
are treated as empty when absent; any other missing include fails its
section.

The command exits non-zero when any stage reports an error, so it is safe to
gate deployments on it:

	halint check --config-dir ./config && deploy`,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	flags := checkCmd.Flags()
	flags.Bool("no-official", false, "skip the official configuration check")
	flags.Bool("template-unknown-blocks", false, "treat unknown references inside templates as errors")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	// Bound here, not in init: refs shares the key and the last bind wins.
	_ = viper.BindPFlag("references.template_unknown_blocks", cmd.Flags().Lookup("template-unknown-blocks"))

	noOfficial, err := cmd.Flags().GetBool("no-official")
	if err != nil {
		return err
	}

	return runValidation(cmd, stageSelection{skipOfficial: noOfficial})
}

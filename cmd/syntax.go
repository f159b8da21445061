package cmd

import (
	"github.com/spf13/cobra"
)

var syntaxCmd = &cobra.Command{
	Use:   "syntax",
	Short: "Run only the YAML syntax and structure checks",
	Long: `Syntax parses every YAML file at the configuration root, verifies
encoding, include tags, and duplicate keys, and applies the structural rules
for automations and scripts. References are not resolved and the official
check does not run.`,
	SilenceUsage: true,
	RunE:         runSyntax,
}

func init() {
	rootCmd.AddCommand(syntaxCmd)
}

func runSyntax(cmd *cobra.Command, _ []string) error {
	return runValidation(cmd, stageSelection{skipReference: true, skipOfficial: true})
}

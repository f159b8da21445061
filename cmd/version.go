package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/halint/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := version.GetBuildInfo()
	out := cmd.OutOrStdout()

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(info)
	}

	fmt.Fprintf(out, "halint %s\n", info.Version)
	fmt.Fprintf(out, "  commit:     %s\n", info.GitCommit)
	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  platform:   %s\n", info.Platform)

	return nil
}

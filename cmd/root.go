package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/halint/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "halint",
	Short: "Validation engine for layered home automation configuration",
	Long: `halint validates a multi-file YAML configuration tree against the
registries of the running system before deployment.

It parses the tree with full include-tag awareness, extracts every entity,
device, and area reference (including those inside template expressions),
resolves them against the persisted registry snapshots, and optionally runs
the official configuration check. The exit status is non-zero whenever the
configuration should not be deployed.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .halint.yml in the working directory)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	bindSharedFlags(flags)
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".halint")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix("HALINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the persistent flags. Logs go to
// stderr, the report owns stdout.
func newLogger() logging.Logger {
	format := "text"
	if logJSON {
		format = "json"
	}

	return logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: format,
		Output: os.Stderr,
	})
}

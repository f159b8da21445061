package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindSharedFlags defines the flags every subcommand shares and binds them
// into viper so file and environment settings merge underneath them.
func bindSharedFlags(flags *pflag.FlagSet) {
	flags.String("config-dir", "", `configuration tree root (default "config")`)
	flags.String("storage-dir", "", "registry storage directory (default <config-dir>/.storage)")
	flags.String("format", "", `report format: text or json (default "text")`)

	_ = viper.BindPFlag("paths.config_dir", flags.Lookup("config-dir"))
	_ = viper.BindPFlag("paths.storage_dir", flags.Lookup("storage-dir"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
}

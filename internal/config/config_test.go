package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "config", cfg.Paths.ConfigDir)
	assert.Equal(t, filepath.Join("config", ".storage"), cfg.Paths.StorageDir)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Official.Enabled)
	assert.Equal(t, "hass", cfg.Official.Command)
	assert.Equal(t, 120, cfg.Official.TimeoutSeconds)
	assert.False(t, cfg.References.TemplateUnknownBlocks)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestLoadStorageDirFollowsConfigDir(t *testing.T) {
	resetViper(t)
	viper.Set("paths.config_dir", "/srv/ha")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ha", cfg.Paths.ConfigDir)
	assert.Equal(t, filepath.Join("/srv/ha", ".storage"), cfg.Paths.StorageDir)
}

func TestLoadExplicitValues(t *testing.T) {
	resetViper(t)
	viper.Set("paths.config_dir", "/srv/ha")
	viper.Set("paths.storage_dir", "/var/lib/ha/.storage")
	viper.Set("output.format", "json")
	viper.Set("official.enabled", false)
	viper.Set("official.command", "hass-core")
	viper.Set("official.timeout_seconds", 30)
	viper.Set("references.template_unknown_blocks", true)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ha/.storage", cfg.Paths.StorageDir)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Official.Enabled)
	assert.Equal(t, "hass-core", cfg.Official.Command)
	assert.Equal(t, 30, cfg.Official.TimeoutSeconds)
	assert.True(t, cfg.References.TemplateUnknownBlocks)
}

func TestLoadFromConfigFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".halint.yml")
	content := `paths:
  config_dir: /srv/ha
output:
  format: json
official:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ha", cfg.Paths.ConfigDir)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Official.Enabled)
}

func TestLoadRejectsBadFormat(t *testing.T) {
	resetViper(t)
	viper.Set("output.format", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	resetViper(t)
	viper.Set("official.timeout_seconds", -1)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestLoadRejectsDangerousCommand(t *testing.T) {
	for _, command := range []string{"hass; rm -rf /", "hass && evil", "hass | tee", "$(evil)"} {
		resetViper(t)
		viper.Set("official.command", command)

		_, err := Load()
		require.Error(t, err, command)
	}
}

func TestLoadRejectsDangerousPaths(t *testing.T) {
	resetViper(t)
	viper.Set("paths.config_dir", "config; rm -rf /")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config_dir")
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/spry/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestInitWritesDefaultConfig(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, runInit(initCmd, nil))

	data, err := os.ReadFile(".spry.yml")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "server")
	assert.Contains(t, parsed, "watch")
	assert.Contains(t, parsed, "reload")

	// Refuses to clobber without --force.
	err = runInit(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestVersionRejectsUnknownFormat(t *testing.T) {
	old := versionFormat
	defer func() { versionFormat = old }()

	versionFormat = "xml"
	err := runVersion(versionCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "control", "browse", "init", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestOpenOverrideHonorsConfigWhenFlagUnset(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
		flags.Bool("no-open", false, "")
		return flags
	}

	// Flag absent: the config file value stands.
	cfg := config.Default()
	cfg.Server.Open = false
	applyOpenOverride(cfg, newFlags())
	assert.False(t, cfg.Server.Open)

	cfg.Server.Open = true
	applyOpenOverride(cfg, newFlags())
	assert.True(t, cfg.Server.Open)

	// Flag given: it wins over the config file.
	cfg.Server.Open = true
	flags := newFlags()
	require.NoError(t, flags.Set("no-open", "true"))
	applyOpenOverride(cfg, flags)
	assert.False(t, cfg.Server.Open)

	cfg.Server.Open = false
	flags = newFlags()
	require.NoError(t, flags.Set("no-open", "false"))
	applyOpenOverride(cfg, flags)
	assert.True(t, cfg.Server.Open)
}

func TestServeRejectsMissingDirectory(t *testing.T) {
	chdir(t, t.TempDir())

	missing := filepath.Join(t.TempDir(), "nope")
	err := runServe(serveCmd, []string{missing})
	require.Error(t, err)
}

// Package cmd provides the spry command-line interface.
//
// Configuration is layered: command-line flags take priority over SPRY_
// environment variables (SPRY_SERVER_PORT, SPRY_WATCH_DEBOUNCE, ...), which
// take priority over the .spry.yml configuration file.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spry",
	Short: "Serve a local directory with automatic browser reload",
	Long: `Spry serves a local directory over HTTP and reloads connected browsers
whenever files change. A JSON control endpoint lets other tools retarget the
server at a new directory or a single file while it runs.

Quick Start:
  spry serve ./site              Serve a directory with live reload
  spry browse                    Interactively pick what to serve
  spry control status            Query a running server
  spry init                      Write a default .spry.yml`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .spry.yml, can also use SPRY_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SPRY_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".spry")
	}

	viper.SetEnvPrefix("SPRY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files fall back to defaults rather than
	// aborting.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

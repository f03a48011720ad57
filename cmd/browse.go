package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/spry/internal/browse"
	"github.com/conneroisu/spry/internal/config"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [directory]",
	Short: "Interactively pick a directory or file to serve",
	Long: `Open an interactive file browser in the terminal. Navigate with ls/cd/up,
start a server with 'start', and push the current directory or a single file
to it with 'push'. Type 'help' inside the browser for the full command list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		browser, err := browse.New(cfg, dir, os.Stdin, os.Stdout, newLogger())
		if err != nil {
			return err
		}
		return browser.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

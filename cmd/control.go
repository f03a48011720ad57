package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/spry/internal/client"
	"github.com/conneroisu/spry/internal/protocol"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	controlServer string
	controlFormat string
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Send commands to a running spry server",
	Long: `Send control commands to a running spry server over its JSON protocol.

Examples:
  spry control status
  spry control set-dir ./site
  spry control set-file ./site/index.html
  spry control stop --server http://localhost:8080`,
}

var controlSetDirCmd = &cobra.Command{
	Use:   "set-dir <directory>",
	Short: "Point the server at a new directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		resp, err := client.New(controlServer).SetDirectory(cmd.Context(), path)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var controlSetFileCmd = &cobra.Command{
	Use:   "set-file <file>",
	Short: "Put the server in direct-file mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		resp, err := client.New(controlServer).SetFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var controlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the server without changing it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.New(controlServer).Status(cmd.Context())
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var controlStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the server to shut down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.New(controlServer).Stop(cmd.Context())
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.AddCommand(controlSetDirCmd, controlSetFileCmd, controlStatusCmd, controlStopCmd)

	controlCmd.PersistentFlags().StringVar(&controlServer, "server", "http://localhost:3000", "Base URL of the running server")
	controlCmd.PersistentFlags().StringVarP(&controlFormat, "format", "f", "text", "Output format (text, json, yaml)")
}

func printResponse(resp protocol.Response) error {
	switch controlFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	case "text":
		fmt.Println(resp.Message)
		if resp.CurrentPath != nil {
			fmt.Printf("Serving: %s\n", *resp.CurrentPath)
		}
		if resp.Port != nil {
			fmt.Printf("Port: %d\n", *resp.Port)
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", controlFormat)
	}

	// A refused command still prints, but the exit code reflects it.
	if !resp.Success {
		return fmt.Errorf("command failed: %s", resp.Message)
	}
	return nil
}

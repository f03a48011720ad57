package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/conneroisu/spry/internal/config"
	"github.com/conneroisu/spry/internal/logging"
	"github.com/conneroisu/spry/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve [directory]",
	Short: "Serve a directory with automatic browser reload",
	Long: `Serve a directory over HTTP with live reload. Connected browsers reload
whenever a file under the served directory changes.

Examples:
  spry serve                 # Serve the current directory
  spry serve ./site          # Serve a specific directory
  spry serve ./site -p 8080  # Serve on a different port`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 3000, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-open", false, "Don't open browser automatically")
	serveCmd.Flags().Duration("debounce", 300*time.Millisecond, "Delay before filesystem changes trigger a reload")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("watch.debounce", serveCmd.Flags().Lookup("debounce"))
}

// applyOpenOverride lets --no-open beat the config file, but only when the
// flag was actually given; otherwise the server.open config value stands.
func applyOpenOverride(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("no-open") {
		noOpen, _ := flags.GetBool("no-open")
		cfg.Server.Open = !noOpen
	}
}

func newLogger() logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(viper.GetString("log.level")),
		Format: viper.GetString("log.format"),
		Output: os.Stderr,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOpenOverride(cfg, cmd.Flags())

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory %q: %w", dir, err)
	}
	dir = abs

	logger := newLogger()

	srv, err := server.New(cfg, dir, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info(ctx, "shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error(ctx, shutdownErr, "error during shutdown")
		}

		cancel()
	}()

	fmt.Printf("Serving %s at http://%s:%d\n", srv.State().Root(), cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

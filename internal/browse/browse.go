// Package browse implements the interactive terminal file browser. It is a
// line-based REPL: navigate the filesystem with ls/cd/up, start a spry server
// as a subprocess, and push directories or single files to it over the
// control protocol.
package browse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/spry/internal/client"
	"github.com/conneroisu/spry/internal/config"
	"github.com/conneroisu/spry/internal/logging"
)

const maxResults = 50

// Browser is the REPL state: current directory, the managed server
// subprocess, and a bounded ring of recent command results.
type Browser struct {
	cfg    *config.Config
	logger logging.Logger

	cwd     string
	results []string

	serverCmd *exec.Cmd
	control   *client.Client

	reader *bufio.Reader
	writer io.Writer

	// spryBinary is the executable spawned for `start`. Defaults to the
	// running binary; overridable in tests.
	spryBinary string
}

// New creates a browser rooted at startDir. The directory must exist.
func New(cfg *config.Config, startDir string, in io.Reader, out io.Writer, logger logging.Logger) (*Browser, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolve start directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("start directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	self, err := os.Executable()
	if err != nil {
		self = "spry"
	}

	return &Browser{
		cfg:        cfg,
		logger:     logger.WithComponent("browse"),
		cwd:        abs,
		results:    make([]string, 0, maxResults),
		reader:     bufio.NewReader(in),
		writer:     out,
		spryBinary: self,
	}, nil
}

// Run reads commands until quit or EOF. The server subprocess, if any, is
// stopped on the way out.
func (b *Browser) Run(ctx context.Context) error {
	defer b.stopServer(ctx)

	fmt.Fprintf(b.writer, "spry browser in %s\n", b.cwd)
	fmt.Fprintf(b.writer, "Type 'help' for commands, 'quit' to exit\n\n")

	for {
		fmt.Fprint(b.writer, "spry> ")

		line, err := b.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		if err := b.handleCommand(ctx, line); err != nil {
			b.record(fmt.Sprintf("error: %v", err))
			fmt.Fprintf(b.writer, "Error: %v\n", err)
		}
		fmt.Fprintln(b.writer)
	}
}

func (b *Browser) handleCommand(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		b.showHelp()
		return nil
	case "ls":
		return b.list()
	case "cd":
		if arg == "" {
			return fmt.Errorf("usage: cd <dir>")
		}
		return b.changeDir(arg)
	case "up":
		return b.changeDir("..")
	case "start":
		return b.startServer(ctx)
	case "stop-server":
		b.stopServer(ctx)
		return nil
	case "push":
		if arg == "" {
			return b.pushDirectory(ctx)
		}
		return b.pushFile(ctx, arg)
	case "status":
		return b.showStatus(ctx)
	case "log":
		b.showResults()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

// list prints the current directory, directories first, each group
// alphabetical. Matches the server's listing order.
func (b *Browser) list() error {
	entries, err := os.ReadDir(b.cwd)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	var dirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name()+"/")
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	fmt.Fprintf(b.writer, "%s\n", b.cwd)
	for _, name := range dirs {
		fmt.Fprintf(b.writer, "  %s\n", name)
	}
	for _, name := range files {
		fmt.Fprintf(b.writer, "  %s\n", name)
	}
	return nil
}

func (b *Browser) changeDir(target string) error {
	next := target
	if !filepath.IsAbs(next) {
		next = filepath.Join(b.cwd, next)
	}
	next, err := filepath.Abs(next)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}

	info, err := os.Stat(next)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", target)
	}

	b.cwd = next
	fmt.Fprintf(b.writer, "%s\n", b.cwd)
	return nil
}

// startServer spawns `spry serve` rooted at the current directory and
// connects the control client to it.
func (b *Browser) startServer(ctx context.Context) error {
	if b.serverCmd != nil {
		return fmt.Errorf("server already running (pid %d)", b.serverCmd.Process.Pid)
	}

	cmd := exec.Command(b.spryBinary, "serve", b.cwd,
		"--port", fmt.Sprintf("%d", b.cfg.Server.Port),
		"--host", b.cfg.Server.Host,
		"--no-open",
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	b.serverCmd = cmd
	b.control = client.New(fmt.Sprintf("http://%s:%d", b.cfg.Server.Host, b.cfg.Server.Port))

	// Poll until the control endpoint answers so the first push does not
	// race the listener.
	if err := b.waitForServer(ctx); err != nil {
		b.stopServer(ctx)
		return err
	}

	msg := fmt.Sprintf("server started on %s:%d serving %s",
		b.cfg.Server.Host, b.cfg.Server.Port, b.cwd)
	b.record(msg)
	fmt.Fprintln(b.writer, msg)
	return nil
}

func (b *Browser) waitForServer(ctx context.Context) error {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		probe, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		_, err := b.control.Status(probe)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("server did not come up within 5s")
}

// stopServer asks the server to exit over the control protocol, then kills
// the subprocess if it lingers.
func (b *Browser) stopServer(ctx context.Context) {
	if b.serverCmd == nil {
		return
	}

	if b.control != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := b.control.Stop(stopCtx)
		cancel()
		if err != nil {
			b.logger.Debug(ctx, "control stop failed", "error", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- b.serverCmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = b.serverCmd.Process.Kill()
		<-done
	}

	b.record("server stopped")
	fmt.Fprintln(b.writer, "server stopped")
	b.serverCmd = nil
	b.control = nil
}

// pushDirectory points the running server at the current directory.
func (b *Browser) pushDirectory(ctx context.Context) error {
	if b.control == nil {
		return fmt.Errorf("no server running (use 'start')")
	}

	resp, err := b.control.SetDirectory(ctx, b.cwd)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Message)
	}

	b.record(resp.Message)
	fmt.Fprintln(b.writer, resp.Message)
	return nil
}

// pushFile puts the running server in direct-file mode for the named file,
// resolved relative to the current directory.
func (b *Browser) pushFile(ctx context.Context, name string) error {
	if b.control == nil {
		return fmt.Errorf("no server running (use 'start')")
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.cwd, path)
	}

	resp, err := b.control.SetFile(ctx, path)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Message)
	}

	b.record(resp.Message)
	fmt.Fprintln(b.writer, resp.Message)
	return nil
}

func (b *Browser) showStatus(ctx context.Context) error {
	fmt.Fprintf(b.writer, "Directory: %s\n", b.cwd)

	if b.control == nil {
		fmt.Fprintln(b.writer, "Server: not running")
		return nil
	}

	resp, err := b.control.Status(ctx)
	if err != nil {
		return fmt.Errorf("server status: %w", err)
	}

	fmt.Fprintf(b.writer, "Server: %s\n", resp.Message)
	if resp.CurrentPath != nil {
		fmt.Fprintf(b.writer, "Serving: %s\n", *resp.CurrentPath)
	}
	if resp.Port != nil {
		fmt.Fprintf(b.writer, "Port: %d\n", *resp.Port)
	}
	return nil
}

// record appends to the bounded result ring.
func (b *Browser) record(msg string) {
	b.results = append(b.results, msg)
	if len(b.results) > maxResults {
		b.results = b.results[1:]
	}
}

func (b *Browser) showResults() {
	if len(b.results) == 0 {
		fmt.Fprintln(b.writer, "No results yet")
		return
	}
	for i, msg := range b.results {
		fmt.Fprintf(b.writer, "%3d  %s\n", i+1, msg)
	}
}

func (b *Browser) showHelp() {
	fmt.Fprintln(b.writer, "Available commands:")
	fmt.Fprintln(b.writer, "  ls               - List the current directory")
	fmt.Fprintln(b.writer, "  cd <dir>         - Change directory")
	fmt.Fprintln(b.writer, "  up               - Go to the parent directory")
	fmt.Fprintln(b.writer, "  start            - Start a server for the current directory")
	fmt.Fprintln(b.writer, "  stop-server      - Stop the running server")
	fmt.Fprintln(b.writer, "  push             - Serve the current directory")
	fmt.Fprintln(b.writer, "  push <file>      - Serve a single file directly")
	fmt.Fprintln(b.writer, "  status           - Show browser and server status")
	fmt.Fprintln(b.writer, "  log              - Show recent results")
	fmt.Fprintln(b.writer, "  help             - Show this help")
	fmt.Fprintln(b.writer, "  quit, exit       - Leave the browser")
}

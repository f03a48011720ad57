package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/conneroisu/spry/internal/client"
	"github.com/conneroisu/spry/internal/config"
	"github.com/conneroisu/spry/internal/logging"
	"github.com/conneroisu/spry/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBrowser(t *testing.T, startDir, input string) (*Browser, *bytes.Buffer) {
	t.Helper()
	var output bytes.Buffer
	b, err := New(config.Default(), startDir, strings.NewReader(input), &output, logging.Nop())
	require.NoError(t, err)
	return b, &output
}

func TestBrowserNavigation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("x"), 0o644))

	input := "ls\ncd sub\nls\nup\nquit\n"
	b, output := newTestBrowser(t, root, input)
	require.NoError(t, b.Run(context.Background()))

	out := output.String()
	// Directories listed before files.
	assert.Less(t, strings.Index(out, "sub/"), strings.Index(out, "a.txt"))
	assert.Contains(t, out, "b.txt")
	assert.Equal(t, root, mustAbs(t, b.cwd))
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}

func TestBrowserRejectsBadTargets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain.txt"), []byte("x"), 0o644))

	input := "cd plain.txt\ncd missing\nquit\n"
	b, output := newTestBrowser(t, root, input)
	require.NoError(t, b.Run(context.Background()))

	out := output.String()
	assert.Contains(t, out, "not a directory")
	assert.Contains(t, out, "Error:")
	assert.Equal(t, mustAbs(t, root), b.cwd)
}

func TestBrowserRequiresDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	var output bytes.Buffer
	_, err := New(config.Default(), file, strings.NewReader(""), &output, logging.Nop())
	require.Error(t, err)
}

func TestBrowserPushWithoutServer(t *testing.T) {
	root := t.TempDir()
	b, output := newTestBrowser(t, root, "push\nquit\n")
	require.NoError(t, b.Run(context.Background()))
	assert.Contains(t, output.String(), "no server running")
}

func TestBrowserPushAgainstStubServer(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "page.html"), []byte("<html>"), 0o644))

	var received []string
	ts := httptest.NewServer(stubControl(t, &received))
	defer ts.Close()

	input := "push\npush page.html\nstatus\nquit\n"
	b, output := newTestBrowser(t, root, input)
	// Wire the control client directly; subprocess management is covered
	// separately.
	b.control = client.New(ts.URL)

	require.NoError(t, b.Run(context.Background()))

	require.Len(t, received, 3)
	assert.Contains(t, received[0], `"SetDirectory"`)
	assert.Contains(t, received[0], b.cwd)
	assert.Contains(t, received[1], `"SetFile"`)
	assert.Contains(t, received[1], filepath.Join(b.cwd, "page.html"))
	assert.Contains(t, received[2], "GetStatus")

	out := output.String()
	assert.Contains(t, out, "Server: Server running")
	assert.Contains(t, out, "Port: "+strconv.Itoa(stubPort))

	// The result ring captured both pushes.
	assert.GreaterOrEqual(t, len(b.results), 2)
}

func TestBrowserStartFailsWithMissingBinary(t *testing.T) {
	root := t.TempDir()
	b, output := newTestBrowser(t, root, "start\nquit\n")
	b.spryBinary = filepath.Join(root, "no-such-binary")

	require.NoError(t, b.Run(context.Background()))
	assert.Contains(t, output.String(), "Error:")
	assert.Nil(t, b.serverCmd)
}

const stubPort = 3000

// stubControl acknowledges every command and records the raw bodies.
func stubControl(t *testing.T, received *[]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*received = append(*received, string(body))

		resp := protocol.Ok("ok")
		if strings.Contains(string(body), "GetStatus") {
			resp = protocol.Status("Server running", "/srv/site", stubPort)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
}

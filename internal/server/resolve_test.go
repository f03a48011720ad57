package server

import (
	gerrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/spry/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolveInsideRoot(t *testing.T) {
	root := canonicalTempDir(t)
	file := filepath.Join(root, "page.html")
	require.NoError(t, os.WriteFile(file, []byte("<html>"), 0o644))

	got, err := resolve(root, "/page.html")
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestResolveRoot(t *testing.T) {
	root := canonicalTempDir(t)

	got, err := resolve(root, "/")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestResolveNested(t *testing.T) {
	root := canonicalTempDir(t)
	sub := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(sub, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	got, err := resolve(root, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestResolveMissingIsNotFound(t *testing.T) {
	root := canonicalTempDir(t)

	_, err := resolve(root, "/nope.txt")
	assert.True(t, gerrors.Is(err, errors.NotFound("")))
}

func TestResolveDotDotEscapeIsRejected(t *testing.T) {
	root := canonicalTempDir(t)

	for _, p := range []string{
		"/../../etc/passwd",
		"/docs/../../../etc/passwd",
		"/..",
	} {
		_, err := resolve(root, p)
		require.Error(t, err, "path %q must not resolve", p)
		escaped := gerrors.Is(err, errors.Forbidden("")) || gerrors.Is(err, errors.NotFound(""))
		assert.True(t, escaped, "path %q must yield Forbidden or NotFound, got %v", p, err)
	}
}

func TestResolveSymlinkEscapeIsForbidden(t *testing.T) {
	root := canonicalTempDir(t)
	outside := canonicalTempDir(t)
	secret := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o644))

	link := filepath.Join(root, "leak")
	require.NoError(t, os.Symlink(secret, link))

	_, err := resolve(root, "/leak")
	assert.True(t, gerrors.Is(err, errors.Forbidden("")),
		"symlink pointing outside the root must be forbidden, got %v", err)
}

func TestResolveSymlinkInsideRootIsAllowed(t *testing.T) {
	root := canonicalTempDir(t)
	target := filepath.Join(root, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(root, "alias.txt")
	require.NoError(t, os.Symlink(target, link))

	got, err := resolve(root, "/alias.txt")
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestContainedSiblingPrefix(t *testing.T) {
	// /srv/site-evil shares a string prefix with /srv/site but is not
	// inside it.
	assert.False(t, contained("/srv/site", "/srv/site-evil/x"))
	assert.True(t, contained("/srv/site", "/srv/site"))
	assert.True(t, contained("/srv/site", "/srv/site/x"))
}

func TestContainedFilesystemRoot(t *testing.T) {
	// Serving the filesystem root must contain everything under it.
	sep := string(filepath.Separator)
	assert.True(t, contained(sep, sep))
	assert.True(t, contained(sep, filepath.Join(sep, "etc")))
	assert.True(t, contained(sep, filepath.Join(sep, "etc", "hostname")))
}

func TestResolveUnderFilesystemRoot(t *testing.T) {
	sep := string(filepath.Separator)
	dir := canonicalTempDir(t)
	file := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(file, []byte("<html>"), 0o644))

	got, err := resolve(sep, filepath.ToSlash(file))
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

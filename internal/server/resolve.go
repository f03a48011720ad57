package server

import (
	"path/filepath"
	"strings"

	"github.com/conneroisu/spry/internal/errors"
)

// resolve maps a request path onto the filesystem under root.
//
// The request remainder is joined onto the root, the result canonicalized,
// and containment verified against the canonical root. Canonicalizing before
// the containment check is what defeats both ".." segments and symlinks
// pointing outside the root: whatever the raw path looked like, the final
// canonical path must still be a descendant of the root.
func resolve(root, requestPath string) (string, error) {
	rel := strings.TrimPrefix(requestPath, "/")
	joined := filepath.Join(root, filepath.FromSlash(rel))

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// Missing path, broken symlink, permission failure: all
		// indistinguishable from absent to the caller.
		return "", errors.NotFound(requestPath)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return "", errors.InternalIO(requestPath, err)
	}

	if !contained(root, canonical) {
		return "", errors.Forbidden(requestPath)
	}

	return canonical, nil
}

// contained reports whether path is root or a descendant of root. The
// trailing-separator guard keeps a sibling like /srv/site-evil from passing
// as inside /srv/site. A root that already ends in the separator, such as
// the filesystem root itself, must not grow a second one.
func contained(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

package server

import (
	"fmt"
	"html"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/spry/internal/errors"
)

// handleServe is the fallback route: every path that is not a control or
// reload endpoint resolves against the serving root.
func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	root, directFile := s.state.Snapshot()

	// Direct-file mode short-circuits only the exact root URL; every
	// other path still resolves against the root directory.
	if directFile != "" && r.URL.Path == "/" {
		s.serveFile(w, r, directFile)
		return
	}

	target, err := resolve(root, r.URL.Path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		// Deleted between resolve and stat.
		s.respondError(w, r, errors.NotFound(r.URL.Path))
		return
	}

	switch {
	case info.Mode().IsRegular():
		s.serveFile(w, r, target)
	case info.IsDir():
		s.serveDirectory(w, r, root, target)
	default:
		s.respondError(w, r, errors.NotFound(r.URL.Path))
	}
}

// serveFile reads the full file and writes it with a MIME type derived from
// the extension. HTML gets the reload script injected.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	contents, err := os.ReadFile(path)
	if err != nil {
		s.respondError(w, r, errors.InternalIO(path, err))
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if isHTML(contentType) {
		injected := injectReloadScript(string(contents))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(injected))
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(contents)
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html"
}

// serveDirectory serves index.html when the directory has one, otherwise a
// synthesized listing.
func (s *Server) serveDirectory(w http.ResponseWriter, r *http.Request, root, dir string) {
	index := filepath.Join(dir, "index.html")
	if info, err := os.Stat(index); err == nil && info.Mode().IsRegular() {
		s.serveFile(w, r, index)
		return
	}

	listing, err := renderListing(root, dir)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(listing))
}

const listingStyle = `<style>
body { font-family: monospace; max-width: 900px; margin: 40px auto; padding: 0 20px; }
h1 { color: #333; border-bottom: 2px solid #0066cc; padding-bottom: 10px; }
ul { list-style: none; padding: 0; }
li { padding: 8px; border-bottom: 1px solid #eee; }
li:hover { background: #f5f5f5; }
a { text-decoration: none; color: #0066cc; }
a:hover { text-decoration: underline; }
.dir { font-weight: bold; }
</style>`

// renderListing builds the directory listing HTML: parent link (omitted at
// the root), then directories, then files, both lexicographically sorted,
// with links relative to the serving root. The reload script lands before
// the closing body tag like any served HTML.
func renderListing(root, dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.InternalIO(dir, err)
	}

	relDir, err := filepath.Rel(root, dir)
	if err != nil {
		return "", errors.InternalIO(dir, err)
	}
	if relDir == "." {
		relDir = ""
	}
	relDir = filepath.ToSlash(relDir)

	var dirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset='utf-8'>")
	b.WriteString("<title>Directory listing</title>")
	b.WriteString(listingStyle)
	b.WriteString("</head><body>")
	fmt.Fprintf(&b, "<h1>Index of /%s</h1><ul>", html.EscapeString(relDir))

	if relDir != "" {
		parent := path.Dir(relDir)
		if parent == "." {
			parent = ""
		}
		fmt.Fprintf(&b, "<li><a href='/%s' class='dir'>../</a></li>", html.EscapeString(parent))
	}

	for _, name := range dirs {
		href := path.Join(relDir, name)
		fmt.Fprintf(&b, "<li><a href='/%s' class='dir'>%s/</a></li>",
			html.EscapeString(href), html.EscapeString(name))
	}
	for _, name := range files {
		href := path.Join(relDir, name)
		fmt.Fprintf(&b, "<li><a href='/%s' class='file'>%s</a></li>",
			html.EscapeString(href), html.EscapeString(name))
	}

	b.WriteString("</ul>")
	b.WriteString(reloadScript)
	b.WriteString("</body></html>")

	return b.String(), nil
}

// respondError maps a serving error onto its HTTP status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "serving failed", "path", r.URL.Path)
	} else {
		s.logger.Debug(r.Context(), "request rejected",
			"path", r.URL.Path, "status", status)
	}

	http.Error(w, http.StatusText(status), status)
}

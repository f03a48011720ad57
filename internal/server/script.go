package server

import "strings"

// reloadScript is injected into every served HTML page. It listens on the
// reload stream and refreshes the page per signal; on a stream error it
// closes the source and falls back to a delayed reload so a restarted server
// picks the client back up.
const reloadScript = `
<script>
(function() {
    const evtSource = new EventSource('/__reload__');
    evtSource.onmessage = function(event) {
        if (event.data === 'reload') {
            console.log('File change detected, reloading...');
            window.location.reload();
        }
    };
    evtSource.onerror = function(err) {
        console.error('EventSource error:', err);
        evtSource.close();
        setTimeout(() => window.location.reload(), 5000);
    };
})();
</script>
`

// injectReloadScript places the reload script immediately before the final
// closing body tag, or appends it when the document has none.
func injectReloadScript(html string) string {
	if pos := strings.LastIndex(html, "</body>"); pos >= 0 {
		var b strings.Builder
		b.Grow(len(html) + len(reloadScript))
		b.WriteString(html[:pos])
		b.WriteString(reloadScript)
		b.WriteString(html[pos:])
		return b.String()
	}
	return html + reloadScript
}

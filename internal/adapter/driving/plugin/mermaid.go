package plugin

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/githubmeta/internal/site"
)

// DefaultMermaidTheme is used when the shortcode has no theme argument.
const DefaultMermaidTheme = "default"

// Mermaid is the "mermaid" shortcode. It wraps diagram source in a container
// that the client-side mermaid script renders. The source is not escaped.
type Mermaid struct{}

var (
	_ site.Plugin    = Mermaid{}
	_ site.Shortcode = Mermaid{}
)

// Name returns the shortcode name.
func (Mermaid) Name() string { return "mermaid" }

// Attach registers the shortcode.
func (m Mermaid) Attach(s *site.Site) {
	s.Shortcodes.Register(m.Name(), m)
}

// Render returns the diagram container for body.
func (Mermaid) Render(args map[string]string, body string) string {
	theme, ok := args["theme"]
	if !ok {
		theme = DefaultMermaidTheme
	}
	return fmt.Sprintf("<div class=\"mermaid\" data-theme=\"%s\">\n%s\n</div>", theme, strings.TrimSpace(body))
}

package site

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderPage converts a Markdown page to HTML. Shortcodes are expanded, the
// Markdown is converted and sanitized, and the shortcode output is then put
// back verbatim, so a shortcode can emit markup the sanitizer would strip.
func (s *Site) RenderPage(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var outputs []string
	withTokens := s.Shortcodes.replace(src, func(sc Shortcode, args map[string]string, body string) string {
		outputs = append(outputs, sc.Render(args, body))
		return placeholder(len(outputs) - 1)
	})

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(withTokens), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	page := htmlSanitizer.Sanitize(buf.String())
	for i, out := range outputs {
		token := placeholder(i)
		page = strings.Replace(page, "<p>"+token+"</p>", out, 1)
		page = strings.Replace(page, token, out, 1)
	}
	return page, nil
}

// placeholder is alphanumeric so neither goldmark nor the sanitizer alters it.
func placeholder(i int) string {
	return fmt.Sprintf("zzshortcode%dzz", i)
}

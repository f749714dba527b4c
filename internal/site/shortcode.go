package site

import (
	"regexp"
	"sort"
	"strings"
)

// Shortcode renders a {{% name key=value %}}body{{% /name %}} directive.
type Shortcode interface {
	Render(args map[string]string, body string) string
}

// ShortcodeFunc adapts a function to the Shortcode interface.
type ShortcodeFunc func(args map[string]string, body string) string

// Render calls f.
func (f ShortcodeFunc) Render(args map[string]string, body string) string {
	return f(args, body)
}

var (
	openTagRe = regexp.MustCompile(`\{\{%\s*([A-Za-z][\w-]*)((?:\s+[A-Za-z_][\w-]*=(?:"[^"]*"|[^\s"%]+))*)\s*%\}\}`)
	argRe     = regexp.MustCompile(`([A-Za-z_][\w-]*)=(?:"([^"]*)"|([^\s"%]+))`)
)

// Shortcodes is the registry of named shortcodes.
type Shortcodes struct {
	byName map[string]Shortcode
}

// NewShortcodes creates an empty registry.
func NewShortcodes() *Shortcodes {
	return &Shortcodes{byName: make(map[string]Shortcode)}
}

// Register adds sc under name, replacing any previous registration.
func (r *Shortcodes) Register(name string, sc Shortcode) {
	r.byName[name] = sc
}

// Names returns the registered names in sorted order.
func (r *Shortcodes) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand replaces every registered shortcode in text with its output.
// Directives with an unknown name are left as they are. A directive without
// a matching closing tag has an empty body.
func (r *Shortcodes) Expand(text string) string {
	return r.replace(text, func(sc Shortcode, args map[string]string, body string) string {
		return sc.Render(args, body)
	})
}

// replace walks text and substitutes every registered directive with the
// result of fn.
func (r *Shortcodes) replace(text string, fn func(sc Shortcode, args map[string]string, body string) string) string {
	var b strings.Builder
	rest := text

	for {
		loc := openTagRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			b.WriteString(rest)
			return b.String()
		}

		name := rest[loc[2]:loc[3]]
		sc, ok := r.byName[name]
		if !ok {
			b.WriteString(rest[:loc[1]])
			rest = rest[loc[1]:]
			continue
		}

		args := parseArgs(rest[loc[4]:loc[5]])
		after := rest[loc[1]:]

		body := ""
		closeRe := regexp.MustCompile(`\{\{%\s*/` + regexp.QuoteMeta(name) + `\s*%\}\}`)
		if c := closeRe.FindStringIndex(after); c != nil {
			body = after[:c[0]]
			after = after[c[1]:]
		}

		b.WriteString(rest[:loc[0]])
		b.WriteString(fn(sc, args, body))
		rest = after
	}
}

func parseArgs(s string) map[string]string {
	args := make(map[string]string)
	for _, m := range argRe.FindAllStringSubmatch(s, -1) {
		// Only one of the quoted and bare groups matches.
		args[m[1]] = m[2] + m[3]
	}
	return args
}

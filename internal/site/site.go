// Package site is the static-site host the plugins attach to: a configuration
// mapping, the shared template context, a lifecycle signal bus and a
// shortcode registry.
package site

import (
	"context"
	"fmt"
	"path/filepath"
)

// Configuration keys read from the site configuration.
const (
	KeyBaseFolder    = "BASE_FOLDER"
	KeyCacheFolder   = "CACHE_FOLDER"
	KeyGlobalContext = "GLOBAL_CONTEXT"
)

// Plugin extends a Site. Attach registers signal handlers and shortcodes.
type Plugin interface {
	Name() string
	Attach(s *Site)
}

// Site holds the state shared between the host and its plugins for one build.
type Site struct {
	// Config is the site configuration. Config[KeyGlobalContext] is the
	// canonical template context.
	Config map[string]any

	// LegacyContext is an optional second template context some templates
	// still read. Values set on the site are written here too when non-nil.
	LegacyContext map[string]any

	Signals    *Signals
	Shortcodes *Shortcodes
}

// New creates a Site around cfg. A GLOBAL_CONTEXT mapping is created when
// cfg has none.
func New(cfg map[string]any) *Site {
	if cfg == nil {
		cfg = map[string]any{}
	}
	if _, ok := cfg[KeyGlobalContext].(map[string]any); !ok {
		cfg[KeyGlobalContext] = map[string]any{}
	}
	return &Site{
		Config:     cfg,
		Signals:    NewSignals(),
		Shortcodes: NewShortcodes(),
	}
}

// Use attaches plugins in order.
func (s *Site) Use(plugins ...Plugin) {
	for _, p := range plugins {
		p.Attach(s)
	}
}

// Emit fires event for this site.
func (s *Site) Emit(ctx context.Context, event string) error {
	return s.Signals.Emit(ctx, event, s)
}

// GlobalContext returns the canonical template context.
func (s *Site) GlobalContext() map[string]any {
	gc, ok := s.Config[KeyGlobalContext].(map[string]any)
	if !ok {
		gc = map[string]any{}
		s.Config[KeyGlobalContext] = gc
	}
	return gc
}

// GlobalContexts returns every template context the site exposes: the
// canonical one first, then the legacy alias when it is set.
func (s *Site) GlobalContexts() []map[string]any {
	contexts := []map[string]any{s.GlobalContext()}
	if s.LegacyContext != nil {
		contexts = append(contexts, s.LegacyContext)
	}
	return contexts
}

// SetGlobal writes value under key into every template context.
func (s *Site) SetGlobal(key string, value any) {
	for _, gc := range s.GlobalContexts() {
		gc[key] = value
	}
}

// BaseFolder returns BASE_FOLDER, or "" when unset.
func (s *Site) BaseFolder() string {
	return s.str(KeyBaseFolder)
}

// CacheDir returns CACHE_FOLDER, else BASE_FOLDER/cache, else ./cache.
func (s *Site) CacheDir() string {
	if dir := s.str(KeyCacheFolder); dir != "" {
		return dir
	}
	if base := s.BaseFolder(); base != "" {
		return filepath.Join(base, "cache")
	}
	return "cache"
}

// Section returns the configuration mapping stored under key, or nil when
// the key is absent or not a mapping. YAML-style map[any]any sections are
// converted.
func (s *Site) Section(key string) map[string]any {
	switch v := s.Config[key].(type) {
	case map[string]any:
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}

func (s *Site) str(key string) string {
	v, _ := s.Config[key].(string)
	return v
}

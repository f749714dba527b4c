// Package plugin adapts the application services to the site host.
package plugin

import (
	"context"
	"log/slog"
	"os"

	"github.com/ericfisherdev/githubmeta/internal/application"
	"github.com/ericfisherdev/githubmeta/internal/site"
)

// GitHubMetadataConfigKey is the site configuration key of the plugin's
// settings mapping.
const GitHubMetadataConfigKey = "GITHUB_METADATA"

// ServiceFactory creates the metadata service for a cache directory.
type ServiceFactory func(cacheDir string) *application.MetadataService

// GitHubMetadata injects GitHub metadata into the site's template context
// when the site is configured.
type GitHubMetadata struct {
	newService ServiceFactory
}

var _ site.Plugin = (*GitHubMetadata)(nil)

// NewGitHubMetadata creates the plugin.
func NewGitHubMetadata(newService ServiceFactory) *GitHubMetadata {
	return &GitHubMetadata{newService: newService}
}

// Name returns the plugin name.
func (p *GitHubMetadata) Name() string { return "github_metadata" }

// Attach connects the plugin to the configured event of s.
func (p *GitHubMetadata) Attach(s *site.Site) {
	s.Signals.Connect(site.EventConfigured, p.onConfigured)
}

// onConfigured runs the metadata pipeline for s. Only configuration errors
// are returned; everything else is logged by the service.
func (p *GitHubMetadata) onConfigured(ctx context.Context, s *site.Site) error {
	cacheDir := s.CacheDir()

	workDir := s.BaseFolder()
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			slog.Debug("working directory unavailable", "error", err)
		}
		workDir = wd
	}

	slog.Debug("github metadata plugin running", "cache_dir", cacheDir, "work_dir", workDir)

	_, err := p.newService(cacheDir).Run(ctx, application.BuildInput{
		Config:  s.Section(GitHubMetadataConfigKey),
		WorkDir: workDir,
		Target:  s,
	})
	return err
}

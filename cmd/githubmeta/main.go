package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Bundled CA roots, used only when the platform store is unavailable or empty

	"github.com/ericfisherdev/githubmeta/internal/adapter/driven/filecache"
	githubadapter "github.com/ericfisherdev/githubmeta/internal/adapter/driven/github"
	"github.com/ericfisherdev/githubmeta/internal/adapter/driven/gitremote"
	"github.com/ericfisherdev/githubmeta/internal/adapter/driving/plugin"
	"github.com/ericfisherdev/githubmeta/internal/application"
	"github.com/ericfisherdev/githubmeta/internal/config"
	"github.com/ericfisherdev/githubmeta/internal/domain/model"
	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
	"github.com/ericfisherdev/githubmeta/internal/site"
)

// httpCacheSubdir holds the conditional-request cache below the site cache.
const httpCacheSubdir = "http"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// cli holds the flags shared by every command.
type cli struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "githubmeta",
		Short:         "Inject GitHub repository metadata into a static site",
		Version:       githubadapter.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if c.verbose {
				level = charmlog.DebugLevel
			}
			slog.SetDefault(slog.New(newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "site configuration file (default ./conf.{yaml,toml,json})")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.mermaidCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// loadSite loads the site configuration, attaches the plugins and fires the
// configured event.
func (c *cli) loadSite(ctx context.Context) (*site.Site, error) {
	// 1. Load configuration.
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	// 2. Wire plugins.
	s := site.New(cfg)
	s.Use(
		plugin.NewGitHubMetadata(newMetadataService),
		plugin.Mermaid{},
	)
	slog.Debug("site loaded",
		"base_folder", s.BaseFolder(),
		"cache_dir", s.CacheDir(),
		"shortcodes", s.Shortcodes.Names(),
	)

	// 3. Run configured handlers.
	if err := s.Emit(ctx, site.EventConfigured); err != nil {
		return nil, err
	}
	return s, nil
}

// newMetadataService wires the driven adapters for one cache directory.
func newMetadataService(cacheDir string) *application.MetadataService {
	clients := application.NewGitHubClientProvider(func(s model.Settings) (driven.GitHubClient, error) {
		httpCacheDir := ""
		if s.HTTPCache {
			httpCacheDir = filepath.Join(cacheDir, httpCacheSubdir)
		}
		client, err := githubadapter.NewClient(s.APIURL, httpCacheDir)
		if err != nil {
			return nil, err
		}
		slog.Debug("github client created", "api_url", s.APIURL, "http_cache", httpCacheDir)
		return client, nil
	})

	return application.NewMetadataService(
		clients,
		filecache.NewStore(cacheDir),
		application.NewRepositoryDetector(gitremote.NewResolver(), nil),
		nil,
		nil,
	)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/githubmeta/internal/adapter/driven/filecache"
	"github.com/ericfisherdev/githubmeta/internal/adapter/driving/plugin"
	"github.com/ericfisherdev/githubmeta/internal/config"
	"github.com/ericfisherdev/githubmeta/internal/site"
)

// newLogger creates the slog handler used by every command.
func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func (c *cli) buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the configured plugins and print the global template context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			s, err := c.loadSite(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s.GlobalContext()); err != nil {
				return fmt.Errorf("encoding global context: %w", err)
			}

			slog.Info("build complete", "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func (c *cli) renderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE",
		Short: "Render a Markdown page with shortcodes to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading page: %w", err)
			}

			s, err := c.loadSite(cmd.Context())
			if err != nil {
				return err
			}

			html, err := s.RenderPage(string(src))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}
}

func (c *cli) mermaidCommand() *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "mermaid",
		Short: "Render diagram source from stdin as a mermaid container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading diagram: %w", err)
			}

			shortcodeArgs := map[string]string{}
			if cmd.Flags().Changed("theme") {
				shortcodeArgs["theme"] = theme
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plugin.Mermaid{}.Render(shortcodeArgs, string(src)))
			return err
		},
	}

	cmd.Flags().StringVarP(&theme, "theme", "t", plugin.DefaultMermaidTheme, "mermaid theme")
	return cmd
}

func (c *cli) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the metadata cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete cached metadata and HTTP responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			dir := site.New(cfg).CacheDir()

			n, err := filecache.NewStore(dir).Clear()
			if err != nil {
				return err
			}
			if err := os.RemoveAll(filepath.Join(dir, httpCacheSubdir)); err != nil {
				return fmt.Errorf("clearing http cache: %w", err)
			}

			slog.Info("cache cleared", "dir", dir, "entries", n)
			return nil
		},
	})

	return cmd
}

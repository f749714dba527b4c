// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// fallbackLogin is reported when only manual repositories identify the site.
const fallbackLogin = "manual"

// BuildInput carries the per-build state the host hands to the service.
type BuildInput struct {
	// Config is the raw github_metadata mapping from the site configuration.
	Config map[string]any
	// WorkDir is the directory used for working-copy identity detection.
	WorkDir string
	// Target receives the assembled context under the inject_as key. May be nil.
	Target driven.TemplateContext
}

// MetadataService assembles the GitHub context for one site build: it
// resolves identities, serves listings from cache or the API, and records
// fetch failures instead of returning them.
type MetadataService struct {
	clients  *GitHubClientProvider
	cache    driven.CacheStore
	detector *RepositoryDetector
	getenv   func(string) string
	now      func() time.Time
}

// NewMetadataService creates a MetadataService. getenv defaults to os.Getenv
// and now to time.Now.
func NewMetadataService(
	clients *GitHubClientProvider,
	cache driven.CacheStore,
	detector *RepositoryDetector,
	getenv func(string) string,
	now func() time.Time,
) *MetadataService {
	if getenv == nil {
		getenv = os.Getenv
	}
	if now == nil {
		now = time.Now
	}
	return &MetadataService{
		clients:  clients,
		cache:    cache,
		detector: detector,
		getenv:   getenv,
		now:      now,
	}
}

// Run builds the GitHub context and injects it into in.Target. It returns
// (nil, nil) when the plugin is disabled or no login can be determined, in
// which case nothing is injected. Only settings errors are returned;
// network and cache failures end up in GitHubContext.Errors with stale cache
// data, if any, standing in for the failed fetch.
func (s *MetadataService) Run(ctx context.Context, in BuildInput) (*model.GitHubContext, error) {
	settings, err := ResolveSettings(in.Config)
	if err != nil {
		return nil, err
	}

	if !settings.Enabled {
		slog.Info("github metadata disabled")
		return nil, nil
	}

	nwo := s.detector.Detect(settings.Repository, in.WorkDir)
	manual := NormalizeManualRepos(settings.ManualRepositories, settings.PublicRepositories.User)

	login := s.resolveLogin(settings, manual, nwo)
	if login == "" {
		slog.Warn("cannot determine github user; set public_repositories.user in GITHUB_METADATA")
		return nil, nil
	}

	if settings.Token != "" {
		slog.Warn("github_metadata token is ignored; only unauthenticated requests are made")
	}

	gc := &model.GitHubContext{
		APIURL:             settings.APIURL,
		UserLogin:          login,
		PublicRepositories: []model.RepositoryRecord{},
		Errors:             []string{},
		GeneratedAt:        s.now().Unix(),
	}
	if nwo != "" {
		gc.RepositoryNWO = &nwo
	}

	switch {
	case len(manual) > 0:
		gc.PublicRepositories = manual
	case settings.PublicRepositories.Enabled:
		repos, err := s.publicRepos(ctx, settings, login)
		if err != nil {
			gc.Errors = append(gc.Errors, "public_repositories: "+err.Error())
		}
		gc.PublicRepositories = repos
	}

	if nwo != "" {
		repo, err := s.repository(ctx, settings, nwo)
		if err != nil {
			gc.Errors = append(gc.Errors, "repository: "+err.Error())
		}
		gc.Repository = repo
	}

	if in.Target != nil {
		in.Target.SetGlobal(settings.InjectAs, gc.TemplateValue())
	}

	slog.Info("github metadata injected",
		"inject_as", settings.InjectAs,
		"user", login,
		"repos", len(gc.PublicRepositories),
	)
	if len(gc.Errors) > 0 {
		slog.Warn("github metadata errors", "errors", gc.Errors)
	}

	return gc, nil
}

// resolveLogin applies the login precedence: configured user, owner of the
// manual repositories, owner of the detected repository, GITHUB_ACTOR, and
// finally a placeholder when manual repositories alone describe the site.
func (s *MetadataService) resolveLogin(settings model.Settings, manual []model.RepositoryRecord, nwo string) string {
	for _, candidate := range []string{
		settings.PublicRepositories.User,
		OwnerFromRepos(manual),
		ownerOf(nwo),
		s.getenv(EnvActor),
	} {
		if candidate != "" {
			return candidate
		}
	}
	if len(manual) > 0 {
		return fallbackLogin
	}
	return ""
}

// publicRepos returns the filtered listing for login from cache or the API.
// On failure it returns the stale cache entry, or an empty list, with the error.
func (s *MetadataService) publicRepos(ctx context.Context, settings model.Settings, login string) ([]model.RepositoryRecord, error) {
	key := model.PublicReposCacheKey(login, settings.PublicRepositories)

	// A null entry decodes to a nil slice and counts as a miss.
	var repos []model.RepositoryRecord
	if s.cache.ReadFresh(key, settings.TTL(), &repos) && repos != nil {
		slog.Debug("public repositories served from cache", "key", key, "repos", len(repos))
		return repos, nil
	}

	fetched, err := s.fetchPublicRepos(ctx, settings, login)
	if err != nil {
		var stale []model.RepositoryRecord
		if !s.cache.ReadAny(key, &stale) {
			return []model.RepositoryRecord{}, err
		}
		slog.Debug("public repositories fetch failed; using stale cache", "key", key)
		return nonNil(stale), err
	}

	if err := s.cache.Write(key, fetched); err != nil {
		slog.Warn("failed to write cache", "key", key, "error", err)
	}
	return fetched, nil
}

func (s *MetadataService) fetchPublicRepos(ctx context.Context, settings model.Settings, login string) ([]model.RepositoryRecord, error) {
	client, err := s.clients.Get(settings)
	if err != nil {
		return nil, err
	}

	pr := settings.PublicRepositories
	repos, err := client.ListUserPublicRepos(ctx, login, pr.Sort, pr.Direction, pr.Limit)
	if err != nil {
		return nil, err
	}
	return FilterRepos(repos, pr.IncludeForks, pr.IncludeArchived), nil
}

// repository returns metadata for nwo from cache or the API, with the same
// stale fallback as publicRepos. The record is nil when nothing is available.
func (s *MetadataService) repository(ctx context.Context, settings model.Settings, nwo string) (model.RepositoryRecord, error) {
	key := model.RepoCacheKey(nwo)

	var repo model.RepositoryRecord
	if s.cache.ReadFresh(key, settings.TTL(), &repo) && repo != nil {
		return repo, nil
	}

	client, err := s.clients.Get(settings)
	if err == nil {
		repo, err = client.GetRepo(ctx, nwo)
	}
	if err != nil {
		var stale model.RepositoryRecord
		if !s.cache.ReadAny(key, &stale) {
			return nil, err
		}
		return stale, err
	}

	if err := s.cache.Write(key, repo); err != nil {
		slog.Warn("failed to write cache", "key", key, "error", err)
	}
	return repo, nil
}

func nonNil(repos []model.RepositoryRecord) []model.RepositoryRecord {
	if repos == nil {
		return []model.RepositoryRecord{}
	}
	return repos
}

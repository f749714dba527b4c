package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/githubmeta/internal/application"
	"github.com/ericfisherdev/githubmeta/internal/domain/model"
	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// --- Mock implementations ---

type listCall struct {
	User      string
	Sort      string
	Direction string
	Limit     int
}

type mockGitHubClient struct {
	repos    []model.RepositoryRecord
	repo     model.RepositoryRecord
	listErr  error
	repoErr  error
	lists    []listCall
	getRepos []string
}

func (m *mockGitHubClient) GetRepo(_ context.Context, nwo string) (model.RepositoryRecord, error) {
	m.getRepos = append(m.getRepos, nwo)
	if m.repoErr != nil {
		return nil, m.repoErr
	}
	return m.repo, nil
}

func (m *mockGitHubClient) ListUserPublicRepos(_ context.Context, user, sort, direction string, limit int) ([]model.RepositoryRecord, error) {
	m.lists = append(m.lists, listCall{User: user, Sort: sort, Direction: direction, Limit: limit})
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.repos, nil
}

// mockCacheStore keeps JSON entries in memory. Entries are fresh unless
// listed in stale.
type mockCacheStore struct {
	entries  map[string][]byte
	stale    map[string]bool
	writeErr error
	writes   []string
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{entries: map[string][]byte{}, stale: map[string]bool{}}
}

func (m *mockCacheStore) ReadFresh(key string, _ time.Duration, v any) bool {
	if m.stale[key] {
		return false
	}
	return m.ReadAny(key, v)
}

func (m *mockCacheStore) ReadAny(key string, v any) bool {
	data, ok := m.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (m *mockCacheStore) Write(key string, v any) error {
	m.writes = append(m.writes, key)
	if m.writeErr != nil {
		return m.writeErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = data
	delete(m.stale, key)
	return nil
}

func (m *mockCacheStore) seed(t *testing.T, key string, v any, stale bool) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	m.entries[key] = data
	m.stale[key] = stale
}

// --- Helpers ---

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type serviceDeps struct {
	client    *mockGitHubClient
	cache     *mockCacheStore
	remotes   *mockRemoteResolver
	env       map[string]string
	factories int
}

func newServiceDeps() *serviceDeps {
	return &serviceDeps{
		client:  &mockGitHubClient{},
		cache:   newMockCacheStore(),
		remotes: &mockRemoteResolver{err: driven.ErrNoRemote},
		env:     map[string]string{},
	}
}

func (d *serviceDeps) service() *application.MetadataService {
	provider := application.NewGitHubClientProvider(func(model.Settings) (driven.GitHubClient, error) {
		d.factories++
		return d.client, nil
	})
	getenv := envFrom(d.env)
	return application.NewMetadataService(
		provider,
		d.cache,
		application.NewRepositoryDetector(d.remotes, getenv),
		getenv,
		func() time.Time { return fixedNow },
	)
}

func run(t *testing.T, svc *application.MetadataService, cfg map[string]any) *model.GitHubContext {
	t.Helper()
	gc, err := svc.Run(context.Background(), application.BuildInput{Config: cfg, WorkDir: "/site"})
	require.NoError(t, err)
	return gc
}

func octocatKey() string {
	return model.PublicReposCacheKey("octocat", model.DefaultSettings().PublicRepositories)
}

// --- Tests ---

func TestRun_Disabled(t *testing.T) {
	deps := newServiceDeps()
	gc := run(t, deps.service(), map[string]any{"enabled": false})

	assert.Nil(t, gc)
	assert.Zero(t, deps.factories)
}

func TestRun_InvalidSettingsAreReturned(t *testing.T) {
	deps := newServiceDeps()
	_, err := deps.service().Run(context.Background(), application.BuildInput{
		Config: map[string]any{"cache_ttl": "soon"},
	})

	require.ErrorIs(t, err, application.ErrInvalidSettings)
}

func TestRun_NoLoginAborts(t *testing.T) {
	deps := newServiceDeps()
	gc := run(t, deps.service(), nil)

	assert.Nil(t, gc)
	assert.Empty(t, deps.client.lists)
}

func TestRun_FetchesFiltersAndCaches(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{
		{"name": "hello-world", "full_name": "octocat/hello-world", "stargazers_count": float64(7)},
		{"name": "fork", "full_name": "octocat/fork", "fork": true},
		{"name": "old", "full_name": "octocat/old", "archived": true},
	}

	gc := run(t, deps.service(), map[string]any{
		"public_repositories": map[string]any{"user": "octocat", "sort": "updated", "limit": 50},
	})
	require.NotNil(t, gc)

	assert.Equal(t, "https://api.github.com", gc.APIURL)
	assert.Equal(t, "octocat", gc.UserLogin)
	assert.Nil(t, gc.RepositoryNWO)
	assert.Nil(t, gc.Repository)
	assert.Empty(t, gc.Errors)
	assert.NotNil(t, gc.Errors)
	assert.Equal(t, fixedNow.Unix(), gc.GeneratedAt)

	require.Len(t, gc.PublicRepositories, 1)
	assert.Equal(t, "hello-world", gc.PublicRepositories[0].Name())
	assert.Equal(t, float64(7), gc.PublicRepositories[0]["stargazers_count"])

	assert.Equal(t, []listCall{{User: "octocat", Sort: "updated", Direction: "desc", Limit: 50}}, deps.client.lists)

	key := model.PublicReposCacheKey("octocat", model.PublicReposSettings{Sort: "updated", Direction: "desc"})
	assert.Equal(t, []string{key}, deps.cache.writes)
}

func TestRun_SecondBuildServedFromCache(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "hello-world", "full_name": "octocat/hello-world"}}
	cfg := map[string]any{"public_repositories": map[string]any{"user": "octocat", "limit": 1}}

	first := run(t, deps.service(), cfg)
	second := run(t, deps.service(), cfg)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.PublicRepositories, second.PublicRepositories)
	assert.Len(t, deps.client.lists, 1, "second build makes no API call")
	assert.Equal(t, 1, deps.factories, "no client is created for a cached build")
}

func TestRun_FetchFailureFallsBackToStaleCache(t *testing.T) {
	deps := newServiceDeps()
	deps.client.listErr = errors.New("github api rate limit exceeded (unauthenticated)")
	deps.cache.seed(t, octocatKey(), []model.RepositoryRecord{{"name": "cached", "full_name": "octocat/cached"}}, true)

	gc := run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"user": "octocat"}})
	require.NotNil(t, gc)

	require.Len(t, gc.PublicRepositories, 1)
	assert.Equal(t, "cached", gc.PublicRepositories[0].Name())
	assert.Equal(t, []string{"public_repositories: github api rate limit exceeded (unauthenticated)"}, gc.Errors)
	assert.Empty(t, deps.cache.writes)
}

func TestRun_FetchFailureWithoutCacheYieldsEmptyList(t *testing.T) {
	deps := newServiceDeps()
	deps.client.listErr = errors.New("connection refused")

	gc := run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"user": "octocat"}})
	require.NotNil(t, gc)

	assert.NotNil(t, gc.PublicRepositories)
	assert.Empty(t, gc.PublicRepositories)
	require.Len(t, gc.Errors, 1)
	assert.Contains(t, gc.Errors[0], "public_repositories: ")
}

func TestRun_FetchFailureIgnoresMistypedStaleEntry(t *testing.T) {
	deps := newServiceDeps()
	deps.client.listErr = errors.New("connection refused")
	deps.cache.entries[octocatKey()] = []byte(`[{"name": "a"}, 5]`)
	deps.cache.stale[octocatKey()] = true

	gc := run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"user": "octocat"}})
	require.NotNil(t, gc)

	assert.NotNil(t, gc.PublicRepositories)
	assert.Empty(t, gc.PublicRepositories)
	assert.Equal(t, []string{"public_repositories: connection refused"}, gc.Errors)
}

func TestRun_NullCacheEntryIsRefetched(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "hello-world", "full_name": "octocat/hello-world"}}
	deps.client.repo = model.RepositoryRecord{"name": "widget", "full_name": "acme/widget"}
	deps.cache.entries[octocatKey()] = []byte(`null`)
	deps.cache.entries[model.RepoCacheKey("acme/widget")] = []byte(`null`)

	gc := run(t, deps.service(), map[string]any{
		"repository":          "acme/widget",
		"public_repositories": map[string]any{"user": "octocat"},
	})
	require.NotNil(t, gc)

	assert.Len(t, deps.client.lists, 1)
	assert.Equal(t, []string{"acme/widget"}, deps.client.getRepos)
	require.Len(t, gc.PublicRepositories, 1)
	assert.Equal(t, "hello-world", gc.PublicRepositories[0].Name())
	assert.Equal(t, "acme/widget", gc.Repository.FullName())
	assert.Empty(t, gc.Errors)
}

func TestRun_CacheWriteFailureKeepsFetchedData(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "hello-world"}}
	deps.cache.writeErr = errors.New("read-only file system")

	gc := run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"user": "octocat"}})
	require.NotNil(t, gc)

	assert.Len(t, gc.PublicRepositories, 1)
	assert.Empty(t, gc.Errors)
}

func TestRun_PublicRepositoriesDisabled(t *testing.T) {
	deps := newServiceDeps()
	gc := run(t, deps.service(), map[string]any{
		"public_repositories": map[string]any{"user": "octocat", "enabled": false},
	})
	require.NotNil(t, gc)

	assert.NotNil(t, gc.PublicRepositories)
	assert.Empty(t, gc.PublicRepositories)
	assert.Empty(t, deps.client.lists)
}

func TestRun_ManualRepositoriesSkipNetwork(t *testing.T) {
	deps := newServiceDeps()
	gc := run(t, deps.service(), map[string]any{
		"manual_repositories": []any{"acme/widget", map[string]any{"name": "gizmo"}},
	})
	require.NotNil(t, gc)

	assert.Equal(t, "acme", gc.UserLogin, "login inferred from manual repositories")
	require.Len(t, gc.PublicRepositories, 2)
	assert.Equal(t, "acme/widget", gc.PublicRepositories[0].FullName())
	assert.Equal(t, "gizmo", gc.PublicRepositories[1].Name())
	assert.Empty(t, deps.client.lists)
	assert.Empty(t, deps.cache.writes)
	assert.Zero(t, deps.factories)
}

func TestRun_ManualRepositoriesWithoutOwner(t *testing.T) {
	deps := newServiceDeps()
	gc := run(t, deps.service(), map[string]any{"manual_repositories": []any{"solo"}})
	require.NotNil(t, gc)

	assert.Equal(t, "manual", gc.UserLogin)
	require.Len(t, gc.PublicRepositories, 1)
	assert.Equal(t, "solo", gc.PublicRepositories[0].FullName())
}

func TestRun_LoginPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		cfg    map[string]any
		env    map[string]string
		remote string
		want   string
	}{
		{
			name: "configured user",
			cfg: map[string]any{
				"public_repositories": map[string]any{"user": "octocat"},
				"manual_repositories": []any{"acme/widget"},
			},
			env:  map[string]string{application.EnvActor: "actor"},
			want: "octocat",
		},
		{
			name: "detected repository owner",
			cfg:  map[string]any{"repository": "acme/widget"},
			env:  map[string]string{application.EnvActor: "actor"},
			want: "acme",
		},
		{
			name:   "working copy owner",
			remote: "git@github.com:remote-owner/site.git",
			env:    map[string]string{application.EnvActor: "actor"},
			want:   "remote-owner",
		},
		{
			name: "environment actor",
			env:  map[string]string{application.EnvActor: "actor"},
			want: "actor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newServiceDeps()
			deps.env = tt.env
			if tt.remote != "" {
				deps.remotes = &mockRemoteResolver{url: tt.remote}
			}

			gc := run(t, deps.service(), tt.cfg)
			require.NotNil(t, gc)
			assert.Equal(t, tt.want, gc.UserLogin)
		})
	}
}

func TestRun_RepositoryMetadata(t *testing.T) {
	deps := newServiceDeps()
	deps.env[application.EnvRepository] = "acme/widget"
	deps.client.repo = model.RepositoryRecord{"name": "widget", "full_name": "acme/widget", "topics": []any{"go"}}

	gc := run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"enabled": false}})
	require.NotNil(t, gc)

	require.NotNil(t, gc.RepositoryNWO)
	assert.Equal(t, "acme/widget", *gc.RepositoryNWO)
	assert.Equal(t, "acme", gc.UserLogin)
	assert.Equal(t, "acme/widget", gc.Repository.FullName())
	assert.Equal(t, []any{"go"}, gc.Repository["topics"])
	assert.Equal(t, []string{"acme/widget"}, deps.client.getRepos)
	assert.Equal(t, []string{model.RepoCacheKey("acme/widget")}, deps.cache.writes)

	// Cached on the second build.
	run(t, deps.service(), map[string]any{"public_repositories": map[string]any{"enabled": false}})
	assert.Len(t, deps.client.getRepos, 1)
}

func TestRun_RepositoryFailureIsIndependent(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "widget", "full_name": "acme/widget"}}
	deps.client.repoErr = errors.New("GET repos/acme/widget -> 404: Not Found")
	deps.cache.seed(t, model.RepoCacheKey("acme/widget"), model.RepositoryRecord{"name": "widget", "stale": true}, true)

	gc := run(t, deps.service(), map[string]any{"repository": "acme/widget"})
	require.NotNil(t, gc)

	assert.Len(t, gc.PublicRepositories, 1)
	assert.Equal(t, true, gc.Repository["stale"])
	assert.Equal(t, []string{"repository: GET repos/acme/widget -> 404: Not Found"}, gc.Errors)
}

func TestRun_ClientFactoryFailureIsRecorded(t *testing.T) {
	deps := newServiceDeps()
	provider := application.NewGitHubClientProvider(func(model.Settings) (driven.GitHubClient, error) {
		return nil, errors.New("parsing base URL: bad")
	})
	svc := application.NewMetadataService(provider, deps.cache, application.NewRepositoryDetector(nil, envFrom(nil)), envFrom(nil), nil)

	gc := run(t, svc, map[string]any{
		"repository":          "acme/widget",
		"public_repositories": map[string]any{"user": "octocat"},
	})
	require.NotNil(t, gc)

	assert.Equal(t, []string{
		"public_repositories: parsing base URL: bad",
		"repository: parsing base URL: bad",
	}, gc.Errors)
	assert.Nil(t, gc.Repository)
}

func TestRun_TokenIsIgnored(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "hello-world"}}

	gc := run(t, deps.service(), map[string]any{
		"token":               "ghp_secret",
		"public_repositories": map[string]any{"user": "octocat"},
	})

	require.NotNil(t, gc)
	assert.Len(t, gc.PublicRepositories, 1)
}

type mockTemplateContext struct {
	values map[string]any
}

func (m *mockTemplateContext) SetGlobal(key string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	m.values[key] = value
}

func TestRun_InjectsUnderConfiguredKey(t *testing.T) {
	deps := newServiceDeps()
	deps.client.repos = []model.RepositoryRecord{{"name": "hello-world"}}
	target := &mockTemplateContext{}

	gc, err := deps.service().Run(context.Background(), application.BuildInput{
		Config: map[string]any{
			"inject_as":           "gh",
			"public_repositories": map[string]any{"user": "octocat"},
		},
		Target: target,
	})
	require.NoError(t, err)
	require.NotNil(t, gc)

	require.Contains(t, target.values, "gh")
	injected, ok := target.values["gh"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "octocat", injected["user_login"])
	assert.Nil(t, injected["repository_nwo"])
	assert.Nil(t, injected["repository"])
	assert.Equal(t, gc.PublicRepositories, injected["public_repositories"])
	assert.Equal(t, fixedNow.Unix(), injected["generated_at"])
}

func TestRun_NothingInjectedWhenAborted(t *testing.T) {
	deps := newServiceDeps()
	target := &mockTemplateContext{}

	_, err := deps.service().Run(context.Background(), application.BuildInput{Target: target})
	require.NoError(t, err)
	assert.Empty(t, target.values)
}

// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/google/go-querystring/query"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// Version is reported in the User-Agent header of every request.
const Version = "0.2.0"

const (
	userAgent      = "githubmeta/" + Version
	requestTimeout = 20 * time.Second
	perPage        = 100
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
// It never sends credentials.
type Client struct {
	gh *gh.Client
}

// NewClient creates an unauthenticated GitHub API client for apiURL with the
// following transport stack:
//  1. httpcache backed by a disk cache in httpCacheDir (ETag conditional
//     requests; skipped when httpCacheDir is empty)
//  2. net/http with a fixed 20s per-request timeout
//  3. go-github (request building, Link pagination, error decoding)
func NewClient(apiURL, httpCacheDir string) (*Client, error) {
	httpClient := &http.Client{Timeout: requestTimeout}
	if httpCacheDir != "" {
		httpClient.Transport = httpcache.NewTransport(diskcache.New(httpCacheDir))
	}
	return NewClientWithHTTPClient(httpClient, apiURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	// go-github resolves relative paths against BaseURL and requires a trailing slash.
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u
	client.UserAgent = userAgent

	return &Client{gh: client}, nil
}

// GetRepo retrieves the metadata of a single repository. The record is the
// API payload as-is, so fields the pipeline does not know about survive.
func (c *Client) GetRepo(ctx context.Context, nwo string) (model.RepositoryRecord, error) {
	owner, repo, err := splitRepo(nwo)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%v/%v", owner, repo)
	var record model.RepositoryRecord
	resp, err := c.get(ctx, path, &record)
	if err != nil {
		return nil, err
	}

	logRateLimit(resp, path, 0, 1)

	return record, nil
}

// ListUserPublicRepos retrieves the public repositories of user. It follows
// the rel="next" URL of the Link header until there is none or limit records
// have been collected, and returns at most limit records in API order.
func (c *Client) ListUserPublicRepos(ctx context.Context, user, sort, direction string, limit int) ([]model.RepositoryRecord, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:      "public",
		Sort:      sort,
		Direction: direction,
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	qs, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("encoding repository list options: %w", err)
	}
	path := fmt.Sprintf("users/%v/repos?%s", user, qs.Encode())

	allRepos := []model.RepositoryRecord{}

	for page := 1; len(allRepos) < limit; page++ {
		var repos []model.RepositoryRecord
		resp, err := c.get(ctx, path, &repos)
		if err != nil {
			return nil, fmt.Errorf("listing public repositories for %s (page %d): %w", user, page, err)
		}

		logRateLimit(resp, "users/"+user+"/repos", page, len(repos))

		allRepos = append(allRepos, repos...)

		next := nextLink(resp.Header.Get("Link"))
		if next == "" {
			break
		}
		path = next
	}

	if len(allRepos) > limit {
		allRepos = allRepos[:limit]
	}

	return allRepos, nil
}

// nextLink returns the rel="next" target of an RFC 8288 Link header, or "".
// go-github only exposes the page number of that link, which is lost when
// the server paginates with cursors.
func nextLink(header string) string {
	for _, link := range strings.Split(header, ",") {
		segments := strings.Split(link, ";")
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				if strings.EqualFold(rel, "next") {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}

// get issues a single GET for path and decodes the JSON body into v.
// Failures are translated by mapError.
func (c *Client) get(ctx context.Context, path string, v any) (*gh.Response, error) {
	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.gh.Do(ctx, req, v)
	if err != nil {
		return resp, mapError(http.MethodGet+" "+path, err)
	}
	return resp, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"from_cache", resp.Header.Get(httpcache.XFromCache) != "",
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	// Unauthenticated clients get 60 requests per hour.
	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

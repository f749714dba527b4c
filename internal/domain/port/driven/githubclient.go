// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
)

// GitHubClient defines the driven port for reading repository metadata from
// the GitHub REST API. Implementations are unauthenticated and never retry:
// a failed request is returned to the caller, which falls back to the cache.
type GitHubClient interface {
	// GetRepo returns the metadata of a single repository identified by
	// "owner/repo".
	GetRepo(ctx context.Context, nwo string) (model.RepositoryRecord, error)

	// ListUserPublicRepos returns at most limit public repositories of user,
	// in API order, following pagination as needed.
	ListUserPublicRepos(ctx context.Context, user, sort, direction string, limit int) ([]model.RepositoryRecord, error)
}

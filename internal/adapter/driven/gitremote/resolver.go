// Package gitremote implements the RemoteResolver port by reading the
// repository configuration of a local working copy with go-git.
package gitremote

import (
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// originRemote is the remote consulted for the repository identity.
const originRemote = "origin"

// Compile-time interface satisfaction check.
var _ driven.RemoteResolver = (*Resolver)(nil)

// Resolver reads remote URLs from .git/config without shelling out to git.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// OriginURL returns the first URL of the "origin" remote of the working copy
// containing dir. Parent directories are searched for the .git directory, the
// same way `git config --get remote.origin.url` behaves when run inside dir.
func (r *Resolver) OriginURL(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open working copy %s: %w", dir, err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("read git config of %s: %w", dir, err)
	}

	remote, ok := cfg.Remotes[originRemote]
	if !ok || len(remote.URLs) == 0 || remote.URLs[0] == "" {
		return "", fmt.Errorf("%s: %w", dir, driven.ErrNoRemote)
	}

	return remote.URLs[0], nil
}

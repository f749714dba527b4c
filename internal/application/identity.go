package application

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	giturls "github.com/chainguard-dev/git-urls"

	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// Environment variables consulted while resolving identities.
const (
	EnvRepository = "GITHUB_REPOSITORY"
	EnvActor      = "GITHUB_ACTOR"
)

// RepositoryDetector resolves the "owner/repo" identity of the site being
// built. Detection never fails: an undeterminable identity is "".
type RepositoryDetector struct {
	remotes driven.RemoteResolver
	getenv  func(string) string
}

// NewRepositoryDetector creates a RepositoryDetector. remotes may be nil to
// disable working-copy detection; getenv defaults to os.Getenv.
func NewRepositoryDetector(remotes driven.RemoteResolver, getenv func(string) string) *RepositoryDetector {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &RepositoryDetector{remotes: remotes, getenv: getenv}
}

// Detect returns the identity by precedence: explicit, then the
// GITHUB_REPOSITORY environment variable when it contains a slash, then the
// origin remote of the working copy containing dir.
func (d *RepositoryDetector) Detect(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}

	if env := strings.TrimSpace(d.getenv(EnvRepository)); strings.Contains(env, "/") {
		return env
	}

	if d.remotes == nil {
		return ""
	}

	remote, err := d.originURL(dir)
	if err != nil {
		slog.Debug("repository detection skipped", "dir", dir, "error", err)
		return ""
	}

	return ParseRemoteNWO(remote)
}

// originURL queries the working copy. A broken working copy must not fail
// the build, so panics from the resolver are reported as errors.
func (d *RepositoryDetector) originURL(dir string) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading origin remote: %v", r)
		}
	}()
	return d.remotes.OriginURL(dir)
}

// ParseRemoteNWO extracts "owner/repo" from a git remote URL. Accepted shapes:
//
//	git@host:owner/repo(.git)
//	http(s)://host/owner/repo(.git)
//	ssh://[user@]host/owner/repo(.git)
//
// For URL forms the first two path segments are used. Anything else yields "".
func ParseRemoteNWO(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}

	if strings.Contains(remote, "://") {
		u, err := giturls.ParseTransport(remote)
		if err != nil {
			return ""
		}
		switch u.Scheme {
		case "http", "https", "ssh":
		default:
			return ""
		}

		path := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}

	if !strings.HasPrefix(remote, "git@") {
		return ""
	}
	u, err := giturls.ParseScp(remote)
	if err != nil {
		return ""
	}
	owner, repo, ok := strings.Cut(strings.TrimSuffix(u.Path, ".git"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return ""
	}
	return owner + "/" + repo
}

// ownerOf returns the owner part of an "owner/repo" identity.
func ownerOf(nwo string) string {
	owner, _, ok := strings.Cut(nwo, "/")
	if !ok {
		return ""
	}
	return owner
}

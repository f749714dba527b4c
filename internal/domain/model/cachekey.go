package model

import (
	"fmt"
	"strings"
)

// PublicReposCacheKey returns the cache file name for a public repository
// listing. Sort, direction and both filters are part of the name so that
// differently shaped queries never share an entry.
func PublicReposCacheKey(user string, pr PublicReposSettings) string {
	return fmt.Sprintf(
		"github_metadata__public_repos__%s__sort-%s__dir-%s__forks-%d__arch-%d.json",
		strings.ReplaceAll(user, "/", "_"),
		pr.Sort,
		pr.Direction,
		boolDigit(pr.IncludeForks),
		boolDigit(pr.IncludeArchived),
	)
}

// RepoCacheKey returns the cache file name for single repository metadata.
func RepoCacheKey(nwo string) string {
	return "github_metadata__repo__" + strings.ReplaceAll(nwo, "/", "__") + ".json"
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

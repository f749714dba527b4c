package application

import (
	"fmt"
	"maps"
	"strings"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
)

const githubWebURL = "https://github.com/"

// NormalizeManualRepos converts configured repository entries into records
// without touching the network. Entries are either strings ("repo" or
// "owner/repo") or partial objects; a bare repo name uses fallbackOwner.
// Missing name, full_name and html_url are derived where possible. Entries of
// any other type, and blank strings, are skipped. Input maps are copied, never
// modified.
func NormalizeManualRepos(entries []any, fallbackOwner string) []model.RepositoryRecord {
	if len(entries) == 0 {
		return nil
	}

	out := make([]model.RepositoryRecord, 0, len(entries))
	for _, item := range entries {
		switch v := item.(type) {
		case string:
			if rec, ok := normalizeManualName(v, fallbackOwner); ok {
				out = append(out, rec)
			}
		case model.RepositoryRecord:
			out = append(out, normalizeManualObject(maps.Clone(v), fallbackOwner))
		case map[string]any:
			out = append(out, normalizeManualObject(maps.Clone(v), fallbackOwner))
		case map[any]any:
			rec := make(model.RepositoryRecord, len(v))
			for k, val := range v {
				rec[fmt.Sprint(k)] = val
			}
			out = append(out, normalizeManualObject(rec, fallbackOwner))
		}
	}
	return out
}

func normalizeManualName(entry, fallbackOwner string) (model.RepositoryRecord, bool) {
	name := strings.TrimSpace(entry)
	if name == "" {
		return nil, false
	}

	owner, repoName := fallbackOwner, name
	if o, r, ok := strings.Cut(name, "/"); ok {
		owner, repoName = o, r
	}

	rec := model.RepositoryRecord{"name": repoName}
	if owner == "" {
		rec["full_name"] = name
		return rec, true
	}

	fullName := owner + "/" + repoName
	rec["full_name"] = fullName
	rec["html_url"] = githubWebURL + fullName
	return rec, true
}

func normalizeManualObject(rec model.RepositoryRecord, fallbackOwner string) model.RepositoryRecord {
	fullName := rec.FullName()
	name := rec.Name()

	if name == "" {
		if _, repoName, ok := strings.Cut(fullName, "/"); ok {
			rec["name"] = repoName
			name = repoName
		}
	}

	if fullName == "" && name != "" && fallbackOwner != "" {
		fullName = fallbackOwner + "/" + name
		rec["full_name"] = fullName
	}

	if _, ok := rec["html_url"]; !ok && strings.Contains(fullName, "/") {
		rec["html_url"] = githubWebURL + fullName
	}
	return rec
}

// OwnerFromRepos returns the owner of the first record whose full_name has
// an owner part, or "".
func OwnerFromRepos(repos []model.RepositoryRecord) string {
	for _, r := range repos {
		if owner := r.Owner(); owner != "" {
			return owner
		}
	}
	return ""
}

// FilterRepos drops forks and archived repositories unless they are
// explicitly included. Order is preserved and the result is never nil.
func FilterRepos(repos []model.RepositoryRecord, includeForks, includeArchived bool) []model.RepositoryRecord {
	out := make([]model.RepositoryRecord, 0, len(repos))
	for _, r := range repos {
		if !includeForks && r.IsFork() {
			continue
		}
		if !includeArchived && r.IsArchived() {
			continue
		}
		out = append(out, r)
	}
	return out
}

package model

// GitHubContext is the object injected into the host's shared template
// context. It is assembled once per build and never persisted.
type GitHubContext struct {
	APIURL             string             `json:"api_url"`
	UserLogin          string             `json:"user_login"`
	RepositoryNWO      *string            `json:"repository_nwo"`
	PublicRepositories []RepositoryRecord `json:"public_repositories"`
	Repository         RepositoryRecord   `json:"repository"`
	Errors             []string           `json:"errors"`
	GeneratedAt        int64              `json:"generated_at"`
}

// TemplateValue returns the context as a plain map keyed the way templates
// address it (github.user_login, github.public_repositories, ...).
func (c *GitHubContext) TemplateValue() map[string]any {
	var nwo any
	if c.RepositoryNWO != nil {
		nwo = *c.RepositoryNWO
	}

	var repo any
	if c.Repository != nil {
		repo = c.Repository
	}

	return map[string]any{
		"api_url":             c.APIURL,
		"user_login":          c.UserLogin,
		"repository_nwo":      nwo,
		"public_repositories": c.PublicRepositories,
		"repository":          repo,
		"errors":              c.Errors,
		"generated_at":        c.GeneratedAt,
	}
}

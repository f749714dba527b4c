package application

import (
	"sync"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
	"github.com/ericfisherdev/githubmeta/internal/domain/port/driven"
)

// ClientFactory builds a GitHub client for the resolved settings.
type ClientFactory func(s model.Settings) (driven.GitHubClient, error)

// GitHubClientProvider creates the GitHub client on first use so that builds
// served entirely from cache never construct one. The client is reused for
// as long as the API base URL stays the same.
type GitHubClientProvider struct {
	mu      sync.Mutex
	factory ClientFactory
	client  driven.GitHubClient
	apiURL  string
}

// NewGitHubClientProvider creates a provider around factory.
func NewGitHubClientProvider(factory ClientFactory) *GitHubClientProvider {
	return &GitHubClientProvider{factory: factory}
}

// Get returns the client for s, creating it if none exists yet or if the
// API base URL changed since the last call.
func (p *GitHubClientProvider) Get(s model.Settings) (driven.GitHubClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.apiURL == s.APIURL {
		return p.client, nil
	}

	client, err := p.factory(s)
	if err != nil {
		return nil, err
	}
	p.client = client
	p.apiURL = s.APIURL
	return client, nil
}


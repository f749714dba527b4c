package model

import "time"

// Default values applied when the github_metadata configuration omits a key.
const (
	DefaultInjectAs  = "github"
	DefaultAPIURL    = "https://api.github.com"
	DefaultCacheTTL  = 3600
	DefaultSort      = "pushed"
	DefaultDirection = "desc"
	DefaultLimit     = 200
)

// ValidSorts lists the sort keys accepted by the user repositories endpoint.
var ValidSorts = []string{"created", "updated", "pushed", "full_name"}

// ValidDirections lists the accepted sort directions.
var ValidDirections = []string{"asc", "desc"}

// PublicReposSettings controls the listing of a user's public repositories.
type PublicReposSettings struct {
	Enabled         bool   `mapstructure:"enabled"`
	User            string `mapstructure:"user"` // GitHub login; empty means "infer".
	Sort            string `mapstructure:"sort"`
	Direction       string `mapstructure:"direction"`
	IncludeForks    bool   `mapstructure:"include_forks"`
	IncludeArchived bool   `mapstructure:"include_archived"`
	Limit           int    `mapstructure:"limit"` // Safety cap on the number of listed repositories.
}

// Settings is the resolved github_metadata configuration. Every field has a
// default, so a zero-length configuration mapping still yields a usable value.
type Settings struct {
	Enabled            bool                `mapstructure:"enabled"`
	InjectAs           string              `mapstructure:"inject_as"`
	APIURL             string              `mapstructure:"api_url"`
	CacheTTL           int                 `mapstructure:"cache_ttl"` // Seconds.
	Repository         string              `mapstructure:"repository"`
	PublicRepositories PublicReposSettings `mapstructure:"public_repositories"`
	ManualRepositories []any               `mapstructure:"manual_repositories"`
	HTTPCache          bool                `mapstructure:"http_cache"`

	// Token is accepted so that existing configurations keep loading, but it
	// is never sent. Requests are always unauthenticated.
	Token string `mapstructure:"token"`
}

// DefaultSettings returns Settings populated with the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:  true,
		InjectAs: DefaultInjectAs,
		APIURL:   DefaultAPIURL,
		CacheTTL: DefaultCacheTTL,
		PublicRepositories: PublicReposSettings{
			Enabled:   true,
			Sort:      DefaultSort,
			Direction: DefaultDirection,
			Limit:     DefaultLimit,
		},
		HTTPCache: true,
	}
}

// TTL returns the cache TTL as a duration.
func (s Settings) TTL() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

package application

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ericfisherdev/githubmeta/internal/domain/model"
)

// ErrInvalidSettings is wrapped by every error ResolveSettings returns.
var ErrInvalidSettings = errors.New("invalid github_metadata settings")

// ResolveSettings decodes the loosely typed github_metadata mapping over the
// documented defaults. Absent or null keys keep their default and unknown
// keys are ignored. Values that cannot be converted to the field type
// ("soon" for cache_ttl, a list for enabled) are errors.
func ResolveSettings(raw map[string]any) (model.Settings, error) {
	s := model.DefaultSettings()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := dec.Decode(raw); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	if len(s.ManualRepositories) == 0 {
		s.ManualRepositories = nil
	}

	if err := validateSettings(s); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return s, nil
}

func validateSettings(s model.Settings) error {
	pr := s.PublicRepositories
	switch {
	case s.InjectAs == "":
		return errors.New("inject_as must not be empty")
	case s.APIURL == "":
		return errors.New("api_url must not be empty")
	case s.CacheTTL < 0:
		return fmt.Errorf("cache_ttl must not be negative, got %d", s.CacheTTL)
	case pr.Limit <= 0:
		return fmt.Errorf("public_repositories.limit must be positive, got %d", pr.Limit)
	case !slices.Contains(model.ValidSorts, pr.Sort):
		return fmt.Errorf("public_repositories.sort must be one of %v, got %q", model.ValidSorts, pr.Sort)
	case !slices.Contains(model.ValidDirections, pr.Direction):
		return fmt.Errorf("public_repositories.direction must be one of %v, got %q", model.ValidDirections, pr.Direction)
	}
	return nil
}

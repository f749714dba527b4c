// Package config loads the site configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides a setting,
// e.g. GITHUBMETA_CACHE_FOLDER.
const EnvPrefix = "GITHUBMETA"

// DefaultConfigName is the file name, without extension, searched for in the
// working directory when no path is given.
const DefaultConfigName = "conf"

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"base_folder",
	"cache_folder",
	"github_metadata.enabled",
	"github_metadata.repository",
	"github_metadata.api_url",
	"github_metadata.public_repositories.user",
}

// Load reads the site configuration from path, or from conf.{yaml,toml,json}
// in the working directory when path is empty. A missing default file is not
// an error. Top-level keys are returned upper-cased (GITHUB_METADATA,
// CACHE_FOLDER); nested keys are lower-case. BASE_FOLDER defaults to the
// directory of the configuration file.
func Load(path string) (map[string]any, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading site config: %w", err)
		}
	}

	cfg := make(map[string]any)
	for key, value := range v.AllSettings() {
		cfg[strings.ToUpper(key)] = value
	}

	if _, ok := cfg["BASE_FOLDER"]; !ok {
		base, err := baseFolder(v.ConfigFileUsed())
		if err != nil {
			return nil, err
		}
		cfg["BASE_FOLDER"] = base
	}

	return cfg, nil
}

func baseFolder(configFile string) (string, error) {
	if configFile != "" {
		return filepath.Abs(filepath.Dir(configFile))
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving base folder: %w", err)
	}
	return wd, nil
}

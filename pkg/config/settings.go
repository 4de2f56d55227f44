// Package config holds the user settings of lineagesync.
//
// Settings are read with viper from a yaml file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/dlogger"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/merge"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

const (
	// EnvConfigLocation overrides the location of the settings file
	EnvConfigLocation = "LINEAGESYNC_CONFIG"

	envPrefix  = "LINEAGESYNC"
	configName = "lineagesync"
	configDir  = ".lineagesync"
)

// Settings of a user
type Settings struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Author   Author       `json:"author" yaml:"author" mapstructure:"author"`
	LogLevel string       `json:"loglevel,omitempty" yaml:"loglevel,omitempty" mapstructure:"loglevel"`
	Remote   string       `json:"remote,omitempty" yaml:"remote,omitempty" mapstructure:"remote"`
	Merge    merge.Params `json:"merge" yaml:"merge" mapstructure:"merge"`
	Metrics  Metrics      `json:"metrics,omitempty" yaml:"metrics,omitempty" mapstructure:"metrics"`
}

// Author of commits
type Author struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Email string `json:"email" yaml:"email" mapstructure:"email"`
}

// Metrics settings
type Metrics struct {
	Enabled bool          `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
	URL     string        `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Period  time.Duration `json:"period,omitempty" yaml:"period,omitempty" mapstructure:"period"`
}

// Default settings
func Default() Settings {
	return Settings{
		LogLevel: dlogger.LogLevelInfo,
		Remote:   vcs.DefaultRemote,
		Merge:    merge.DefaultParams(),
		Metrics:  Metrics{Period: 10 * time.Second},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("loglevel", d.LogLevel)
	v.SetDefault("remote", d.Remote)
	v.SetDefault("merge.distCutoff", d.Merge.DistCutoff)
	v.SetDefault("merge.mahalanobisDistCutoff", d.Merge.MahalanobisDistCutoff)
	v.SetDefault("merge.ratioThreshold", d.Merge.RatioThreshold)
	v.SetDefault("author.name", "")
	v.SetDefault("author.email", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.url", "")
	v.SetDefault("metrics.period", d.Metrics.Period)
}

// New viper instance looking up the settings file and the environment.
//
// The settings file is $LINEAGESYNC_CONFIG if set, or lineagesync.yaml in
// the current directory or in $HOME/.lineagesync. Environment variables such
// as LINEAGESYNC_AUTHOR_NAME override the file.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	if file := os.Getenv(EnvConfigLocation); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", configDir))
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load the settings. A missing settings file is not an error.
func Load(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Settings{}, err
		}
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Location of the settings file written by Save
func Location() string {
	if file := os.Getenv(EnvConfigLocation); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configName + ".yaml"
	}
	return filepath.Join(home, configDir, configName+".yaml")
}

// Save writes the settings as a yaml document
func Save(s Settings, file string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return err
	}
	return os.WriteFile(file, b, 0o600)
}

// EnsureAuthor returns the author of commits, or status.ErrAuthorNotSet if
// the name or the email is missing
func (s Settings) EnsureAuthor() (vcs.Author, error) {
	if strings.TrimSpace(s.Author.Name) == "" || strings.TrimSpace(s.Author.Email) == "" {
		return vcs.Author{}, status.ErrAuthorNotSet
	}
	return vcs.Author{Name: s.Author.Name, Email: s.Author.Email}, nil
}

// Package config reads action inputs and runner settings.
//
// Inputs come from command-line flags, then INPUT_<NAME> environment variables
// (the way the Actions runner passes `with:` values), then defaults. Runner
// settings are read from their well-known environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Input and setting keys.
const (
	KeyToken       = "token"
	KeyVersion     = "version"
	KeyStrictAsset = "strict-asset"
	KeyOS          = "os"
	KeyArch        = "arch"
	KeyAPIURL      = "api-url"
	KeyToolCache   = "tool-cache"

	keyTempDir    = "temp-dir"
	keyPathFile   = "path-file"
	keyOutputFile = "output-file"
	keyActions    = "actions"
	keyDebug      = "debug"
)

// DefaultVersion requests the newest release.
const DefaultVersion = "latest"

// ErrTokenRequired is returned by Validate when no token was supplied.
var ErrTokenRequired = errors.New("input required and not supplied: token")

// Config holds everything a run needs to know about its environment.
type Config struct {
	Token       string `mapstructure:"token"`
	Version     string `mapstructure:"version"`
	StrictAsset bool   `mapstructure:"strict-asset"`
	OS          string `mapstructure:"os"`
	Arch        string `mapstructure:"arch"`

	// APIURL is the GitHub REST API base (GITHUB_API_URL on GHES).
	APIURL string `mapstructure:"api-url"`
	// ToolCache is the tool cache root; empty means the cache's own default.
	ToolCache string `mapstructure:"tool-cache"`
	// TempDir holds downloads and extractions; empty means os.TempDir.
	TempDir    string `mapstructure:"temp-dir"`
	PathFile   string `mapstructure:"path-file"`
	OutputFile string `mapstructure:"output-file"`
	// Actions is true when running under the Actions runner.
	Actions bool `mapstructure:"actions"`
	// Debug is true when step debug logging is enabled.
	Debug bool `mapstructure:"debug"`
}

// RegisterFlags adds the input flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyToken, "", "GitHub token used to query releases (env INPUT_TOKEN or GITHUB_TOKEN)")
	fs.String(KeyVersion, DefaultVersion, "kustomize version to install, or \"latest\"")
	fs.Bool(KeyStrictAsset, false, "fail when more than one release asset matches the platform")
	fs.String(KeyOS, runtime.GOOS, "target operating system of the binary")
	fs.String(KeyArch, runtime.GOARCH, "target architecture of the binary (x64 is accepted for amd64)")
	fs.String(KeyAPIURL, "", "GitHub API base URL (env GITHUB_API_URL)")
	fs.String(KeyToolCache, "", "tool cache directory (env RUNNER_TOOL_CACHE)")
}

// Load resolves the configuration from fs and the environment. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("INPUT")
	v.AutomaticEnv()

	v.SetDefault(KeyVersion, DefaultVersion)
	v.SetDefault(KeyStrictAsset, false)
	v.SetDefault(KeyOS, runtime.GOOS)
	v.SetDefault(KeyArch, runtime.GOARCH)

	envBindings := map[string][]string{
		KeyToken:      {"INPUT_TOKEN", "GITHUB_TOKEN"},
		KeyAPIURL:     {"GITHUB_API_URL"},
		KeyToolCache:  {"RUNNER_TOOL_CACHE"},
		keyTempDir:    {"RUNNER_TEMP"},
		keyPathFile:   {"GITHUB_PATH"},
		keyOutputFile: {"GITHUB_OUTPUT"},
		keyActions:    {"GITHUB_ACTIONS"},
		keyDebug:      {"RUNNER_DEBUG"},
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing inputs: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required inputs are present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrTokenRequired
	}

	if c.Version == "" {
		return errors.New("version must not be empty")
	}

	if c.OS == "" || c.Arch == "" {
		return fmt.Errorf("platform is incomplete: os %q arch %q", c.OS, c.Arch)
	}

	return nil
}

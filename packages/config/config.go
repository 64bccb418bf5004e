package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is a named client configuration.
type Profile struct {
	FollowRedirects *bool             `yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty"`
	Insecure        *bool             `yaml:"insecure,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	Cookies         map[string]string `yaml:"cookies,omitempty"`
	Auth            *AuthConfig       `yaml:"auth,omitempty"`
}

// AuthConfig carries basic-auth credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config is the root of a config file: shared defaults plus named
// profiles overriding them.
type Config struct {
	Profile  `yaml:",inline"`
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects defaults to true.
func (p *Profile) GetFollowRedirects() bool {
	return getBool(p.FollowRedirects, true)
}

// GetInsecure defaults to false.
func (p *Profile) GetInsecure() bool {
	return getBool(p.Insecure, false)
}

// Resolve returns the named profile merged over the file's defaults.
// An empty name returns the defaults; an unknown name is an error.
func (c *Config) Resolve(name string) (*Profile, error) {
	base := c.Profile
	if name == "" {
		return &base, nil
	}
	override, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown profile %q", name)
	}
	if override.FollowRedirects != nil {
		base.FollowRedirects = override.FollowRedirects
	}
	if override.MaxRedirects != 0 {
		base.MaxRedirects = override.MaxRedirects
	}
	if override.Insecure != nil {
		base.Insecure = override.Insecure
	}
	if override.Auth != nil {
		base.Auth = override.Auth
	}
	base.Headers = mergeMaps(base.Headers, override.Headers)
	base.Cookies = mergeMaps(base.Cookies, override.Cookies)
	return &base, nil
}

func mergeMaps(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Filenames are the config files searched for, in order.
var Filenames = []string{
	".httpx.yaml",
	".httpx.yml",
	"httpx.yaml",
}

// Load reads a config file. With an empty path it searches the working
// directory for the well-known names and returns an empty config when
// none exists.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	for _, name := range Filenames {
		candidate := filepath.Join(".", name)
		if _, err := os.Stat(candidate); err == nil {
			return loadFile(candidate)
		}
	}
	return &Config{}, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

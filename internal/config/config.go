// Package config provides configuration loading and validation for the site.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPort                = 3000
	DefaultCMSURL              = "http://127.0.0.1:1337"
	DefaultOptimizerURL        = "http://localhost:8000/api"
	DefaultOptimizeTimeout     = 5 * time.Minute
	DefaultCMSTimeout          = 10 * time.Second
	DefaultArticleCacheTTL     = 10 * time.Second
	DefaultHeadingDefaultLevel = 3
	DefaultUnknownBlocks       = "paragraph"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "console"
)

// Duration is a time.Duration that reads "30s" style strings or plain
// seconds from YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// UnmarshalYAML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.parse(value.Value)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the site configuration. It can be loaded from a YAML or
// JSON file and overridden by environment variables and CLI flags.
type Config struct {
	Port int `yaml:"port" json:"port,omitempty"`

	// Content API
	CMSURL          string   `yaml:"cms_url" json:"cms_url,omitempty"`
	CMSAPIToken     string   `yaml:"cms_api_token" json:"cms_api_token,omitempty"`
	AssetBaseURL    string   `yaml:"asset_base_url" json:"asset_base_url,omitempty"` // Prefix for relative media URLs
	CMSTimeout      Duration `yaml:"cms_timeout" json:"cms_timeout,omitempty"`
	ArticleCacheTTL Duration `yaml:"article_cache_ttl" json:"article_cache_ttl,omitempty"` // Negative disables caching

	// Optimization API
	OptimizerURL    string   `yaml:"optimizer_url" json:"optimizer_url,omitempty"`
	OptimizeTimeout Duration `yaml:"optimize_timeout" json:"optimize_timeout,omitempty"`

	// Article rendering
	HeadingDefaultLevel int    `yaml:"heading_default_level" json:"heading_default_level,omitempty"`
	UnknownBlocks       string `yaml:"unknown_blocks" json:"unknown_blocks,omitempty"` // paragraph or skip

	// Logging
	LogLevel  string `yaml:"log_level" json:"log_level,omitempty"`
	LogFormat string `yaml:"log_format" json:"log_format,omitempty"` // console or json

	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins,omitempty"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Port:                DefaultPort,
		CMSURL:              DefaultCMSURL,
		CMSTimeout:          Duration(DefaultCMSTimeout),
		ArticleCacheTTL:     Duration(DefaultArticleCacheTTL),
		OptimizerURL:        DefaultOptimizerURL,
		OptimizeTimeout:     Duration(DefaultOptimizeTimeout),
		HeadingDefaultLevel: DefaultHeadingDefaultLevel,
		UnknownBlocks:       DefaultUnknownBlocks,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
	}
}

// LoadConfig loads configuration from a YAML or JSON file, chosen by
// extension. Unknown extensions are tried as YAML, then JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			if jerr := json.Unmarshal(data, &cfg); jerr != nil {
				return nil, fmt.Errorf("failed to parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. Several names are
// accepted for the CMS URL to match existing deployments.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v := firstEnv(getenv, "CMS_URL", "STRAPI_API_URL", "NEXT_PUBLIC_STRAPI_URL"); v != "" {
		c.CMSURL = v
	}
	if v := firstEnv(getenv, "CMS_API_TOKEN", "STRAPI_API_TOKEN"); v != "" {
		c.CMSAPIToken = v
	}
	if v := getenv("ASSET_BASE_URL"); v != "" {
		c.AssetBaseURL = v
	}
	if v := firstEnv(getenv, "OPTIMIZER_API_URL", "NEXT_PUBLIC_API_URL"); v != "" {
		c.OptimizerURL = v
	}
	for name, target := range map[string]*Duration{
		"OPTIMIZE_TIMEOUT":  &c.OptimizeTimeout,
		"CMS_TIMEOUT":       &c.CMSTimeout,
		"ARTICLE_CACHE_TTL": &c.ArticleCacheTTL,
	} {
		if v := getenv(name); v != "" {
			if err := target.parse(v); err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
		}
	}
	if v := getenv("HEADING_DEFAULT_LEVEL"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HEADING_DEFAULT_LEVEL: %w", err)
		}
		c.HeadingDefaultLevel = level
	}
	if v := getenv("UNKNOWN_BLOCKS"); v != "" {
		c.UnknownBlocks = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

func firstEnv(getenv func(string) string, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if err := validateURL("cms_url", c.CMSURL); err != nil {
		return err
	}
	if err := validateURL("optimizer_url", c.OptimizerURL); err != nil {
		return err
	}
	if err := validateURL("asset_base_url", c.AssetBaseURL); err != nil {
		return err
	}
	if c.HeadingDefaultLevel < 0 || c.HeadingDefaultLevel > 6 {
		return fmt.Errorf("config error: 'heading_default_level' must be between 1 and 6, got %d", c.HeadingDefaultLevel)
	}
	switch strings.ToLower(c.UnknownBlocks) {
	case "", "paragraph", "skip":
	default:
		return fmt.Errorf("config error: 'unknown_blocks' must be 'paragraph' or 'skip', got %q", c.UnknownBlocks)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config error: 'log_format' must be 'console' or 'json', got %q", c.LogFormat)
	}
	if c.OptimizeTimeout < 0 || c.CMSTimeout < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	return nil
}

func validateURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config error: '%s' must be an absolute http(s) URL, got %q", field, value)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.CMSURL == "" {
		result.CMSURL = defaults.CMSURL
	}
	if result.CMSAPIToken == "" {
		result.CMSAPIToken = defaults.CMSAPIToken
	}
	if result.AssetBaseURL == "" {
		result.AssetBaseURL = defaults.AssetBaseURL
	}
	if result.OptimizerURL == "" {
		result.OptimizerURL = defaults.OptimizerURL
	}
	if result.UnknownBlocks == "" {
		result.UnknownBlocks = defaults.UnknownBlocks
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.HeadingDefaultLevel == 0 {
		result.HeadingDefaultLevel = defaults.HeadingDefaultLevel
	}
	if result.OptimizeTimeout == 0 {
		result.OptimizeTimeout = defaults.OptimizeTimeout
	}
	if result.CMSTimeout == 0 {
		result.CMSTimeout = defaults.CMSTimeout
	}
	if result.ArticleCacheTTL == 0 {
		result.ArticleCacheTTL = defaults.ArticleCacheTTL
	}

	return result
}

// CacheTTL returns the article cache TTL, zero when caching is disabled.
func (c *Config) CacheTTL() time.Duration {
	if c.ArticleCacheTTL < 0 {
		return 0
	}
	return c.ArticleCacheTTL.Std()
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load resolves the effective configuration: the file at path (optional),
// then environment variables, then defaults for anything still unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

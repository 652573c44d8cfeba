package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path; a trailing "/" matches by prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from a variable lookup. Malformed values fall
// back to their defaults.
func ConfigFromEnv(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.boolean("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	if perHour := env.integer("RATE_LIMIT_OPTIMIZE_PER_HOUR", 0); perHour > 0 {
		for i := range endpoints {
			if endpoints[i].Path == "/optimize" {
				endpoints[i].Limit = perHour
				endpoints[i].Burst = min(endpoints[i].Burst, perHour)
			}
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer("RATE_LIMIT_DEFAULT_LIMIT", 300),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTimeout:     env.duration("RATE_LIMIT_IDLE_TIMEOUT", time.Hour),
		Whitelist:       clientSet(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       clientSet(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Calls into the Optimization API (strictest limits)
		{Path: "/optimize", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/upload", Method: "POST", Limit: 30, Window: time.Hour, Burst: 10},

		// Local state changes
		{Path: "/upload/clear", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Decoding a stored PDF
		{Path: "/results/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 30},

		// Pages hitting the CMS - handled by default limit
		// Health checks (unlimited) - handled by special case in matcher
	}
}

type envReader func(string) string

func (e envReader) integer(key string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(e(key))); err == nil {
		return n
	}
	return fallback
}

func (e envReader) boolean(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(e(key))); err == nil {
		return b
	}
	return fallback
}

func (e envReader) duration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(e(key))); err == nil {
		return d
	}
	return fallback
}

// clientSet parses a comma-separated list of client IPs.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}

package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds rate limiting configuration. Whitelist and Blacklist entries
// match either a token subject or a client IP.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// EndpointConfig is one rule. A Path ending in "/" covers every path below
// it, and all of those share one bucket per client.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 is unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Match finds the rule for a request: exact paths first, then prefixes.
// GET /health and GET /metrics are never limited.
func (c *Config) Match(path, method string) (EndpointConfig, bool) {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		return EndpointConfig{Path: path, Method: method}, true
	}
	var prefix *EndpointConfig
	for i := range c.EndpointConfigs {
		rule := &c.EndpointConfigs[i]
		if rule.Method != method {
			continue
		}
		if rule.Path == path {
			return *rule, true
		}
		if prefix == nil && strings.HasSuffix(rule.Path, "/") && strings.HasPrefix(path, rule.Path) {
			prefix = rule
		}
	}
	if prefix != nil {
		return *prefix, true
	}
	return EndpointConfig{}, false
}

// LoadConfig reads RATE_LIMIT_* environment variables over the defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		Whitelist:       parseList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the rule tiers. Reads, /code and /audit
// fall through to the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// full article runs and sitemap crawls
		{Path: "/pipeline", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/pipeline/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/sitemap/ingest", Method: "POST", Limit: 20, Window: time.Hour, Burst: 2},

		// single model calls
		{Path: "/topics", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/keywords", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/serp", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/competitors", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/entities", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/faq", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/tov", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/tov/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/audience", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/cjm", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/outline", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/articles", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/articles/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// workspace writes
		{Path: "/projects", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/projects/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/projects/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// envOr parses key with parse, keeping def when the variable is unset or
// malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// parseList splits a comma-separated list of subjects or IPs.
func parseList(list string) map[string]bool {
	out := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out[item] = true
		}
	}
	return out
}

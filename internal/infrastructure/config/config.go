package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the search hub.
type Config struct {
	// HTTP Server
	HTTPPort  string `env:"HUB_HTTP_PORT" envDefault:"8091"`
	LogLevel  string `env:"HUB_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"HUB_LOG_FORMAT" envDefault:"json"` // json or console

	// Optional static API key guarding the REST and MCP surfaces.
	// Empty means no authentication.
	APIKey string `env:"HUB_API_KEY"`

	// Outbound HTTP
	HTTPTimeout     int    `env:"HUB_HTTP_TIMEOUT" envDefault:"15"` // seconds
	HTTPProxy       string `env:"HUB_HTTP_PROXY"`
	MaxConnsPerHost int    `env:"HUB_MAX_CONNS_PER_HOST" envDefault:"50"`
	MaxIdleConns    int    `env:"HUB_MAX_IDLE_CONNS" envDefault:"100"`
	IdleConnTimeout int    `env:"HUB_IDLE_CONN_TIMEOUT" envDefault:"90"` // seconds

	// Retry Configuration
	RetryTransientAttempts int     `env:"HUB_RETRY_TRANSIENT_ATTEMPTS" envDefault:"2"`
	RetryInitialDelayMS    int     `env:"HUB_RETRY_INITIAL_DELAY_MS" envDefault:"250"`
	RetryMaxDelayMS        int     `env:"HUB_RETRY_MAX_DELAY_MS" envDefault:"5000"`
	RetryBackoffFactor     float64 `env:"HUB_RETRY_BACKOFF_FACTOR" envDefault:"1.5"`

	// Circuit Breaker Configuration
	CBEnabled          bool `env:"HUB_CB_ENABLED" envDefault:"true"`
	CBFailureThreshold int  `env:"HUB_CB_FAILURE_THRESHOLD" envDefault:"15"`
	CBSuccessThreshold int  `env:"HUB_CB_SUCCESS_THRESHOLD" envDefault:"5"`
	CBTimeout          int  `env:"HUB_CB_TIMEOUT" envDefault:"45"` // seconds
	CBMaxHalfOpen      int  `env:"HUB_CB_MAX_HALF_OPEN" envDefault:"10"`

	// Provider credentials. Each provider reads a comma-separated key
	// list, or a file with one key per line via the *_FILE variant.
	BraveAPIKey          string  `env:"BRAVE_API_KEY"`
	BraveAPIKeyFile      string  `env:"BRAVE_API_KEY_FILE"`
	BraveRateDelay       float64 `env:"BRAVE_RATE_LIMIT_DELAY" envDefault:"1.0"` // seconds
	TavilyAPIKey         string  `env:"TAVILY_API_KEY"`
	TavilyAPIKeyFile     string  `env:"TAVILY_API_KEY_FILE"`
	TavilyRateDelay      float64 `env:"TAVILY_RATE_LIMIT_DELAY" envDefault:"0.5"`
	BrightDataAPIKey     string  `env:"BRIGHTDATA_API_KEY"`
	BrightDataAPIKeyFile string  `env:"BRIGHTDATA_API_KEY_FILE"`
	BrightDataZone       string  `env:"BRIGHTDATA_ZONE" envDefault:"mcp_unlocker"`
	BrightDataRateDelay  float64 `env:"BRIGHTDATA_RATE_LIMIT_DELAY" envDefault:"1.0"`
	ScrapelessAPIKey     string  `env:"SCRAPELESS_API_KEY"`
	ScrapelessAPIKeyFile string  `env:"SCRAPELESS_API_KEY_FILE"`
	ScrapelessRateDelay  float64 `env:"SCRAPELESS_RATE_LIMIT_DELAY" envDefault:"1.0"`

	// SearXNG needs no credentials, only an instance URL.
	SearxngURL       string  `env:"SEARXNG_URL" envDefault:"http://localhost:8080"`
	SearxngRateDelay float64 `env:"SEARXNG_RATE_LIMIT_DELAY" envDefault:"0"`

	// Optional YAML file overriding per-provider SERP field maps.
	SERPFieldMapFile string `env:"SERP_FIELD_MAP_FILE"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("HUB_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("HUB_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}
	return cfg, nil
}

// Timeout returns the outbound HTTP timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// ResolveCredential returns the inline credential list if set, otherwise
// the contents of the key file normalized to a comma-separated list. Both
// empty means the provider is not configured.
func ResolveCredential(inline, filePath string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if filePath == "" {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		if key := strings.TrimSpace(line); key != "" {
			keys = append(keys, key)
		}
	}
	return strings.Join(keys, ","), nil
}

// Package config loads the server's environment-variable configuration.
//
// Unlike the teacher's YAML file config, this service takes its entire
// configuration from the environment — the set named in the host
// platform's own deployment convention — so there is no file path, no
// Load/Save round trip, just Getenv and defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brimtide/vlesstund/internal/shared/constants"
)

// Config holds every environment-derived setting this server reads.
type Config struct {
	Port int

	APIKey string

	StaticUUID     string
	StaticUUIDFile string
	DevMode        bool

	RemoteAPIURL string
	RemoteAPIKey string

	UUIDCacheTTL time.Duration

	ProxyIP   string
	DNSServer string

	MuxEnabled bool

	StatsReportURL   string
	StatsReportToken string

	LogLevel string
}

// Load reads the Config from the process environment.
func Load() *Config {
	cfg := &Config{
		Port:             getEnvInt("PORT", constants.DefaultServerPort),
		APIKey:           os.Getenv("API_KEY"),
		StaticUUID:       os.Getenv("UUID"),
		StaticUUIDFile:   os.Getenv("STATIC_UUIDS_FILE"),
		DevMode:          strings.EqualFold(os.Getenv("DEV_MODE"), "true"),
		RemoteAPIURL:     os.Getenv("RW_API_URL"),
		RemoteAPIKey:     os.Getenv("RW_API_KEY"),
		UUIDCacheTTL:     getEnvSeconds("UUID_CACHE_TTL", constants.DefaultUUIDCacheTTL),
		ProxyIP:          os.Getenv("PROXY_IP"),
		DNSServer:        getEnvString("DNS_SERVER", constants.DefaultDoHEndpoint),
		MuxEnabled:       !strings.EqualFold(os.Getenv("MUX_ENABLED"), "false"),
		StatsReportURL:   os.Getenv("STATS_REPORT_URL"),
		StatsReportToken: os.Getenv("STATS_REPORT_TOKEN"),
		LogLevel:         strings.ToUpper(getEnvString("LOG_LEVEL", "INFO")),
	}
	return cfg
}

// Validate reports configuration combinations that can never serve a
// tunnel: no static UUID provider and no remote provider configured.
func (c *Config) Validate() error {
	staticConfigured := c.DevMode && (c.StaticUUID != "" || c.StaticUUIDFile != "")
	if !staticConfigured && (c.RemoteAPIURL == "" || c.RemoteAPIKey == "") {
		return fmt.Errorf("no authorization provider configured: set UUID or STATIC_UUIDS_FILE with DEV_MODE=true, or RW_API_URL and RW_API_KEY")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	switch c.LogLevel {
	case "OFF", "ERROR", "WARN", "INFO", "DEBUG":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q: must be one of OFF, ERROR, WARN, INFO, DEBUG", c.LogLevel)
	}
	return nil
}

// RemoteProviderEnabled reports whether RW_API_URL and RW_API_KEY are
// both set, per spec.md §6.
func (c *Config) RemoteProviderEnabled() bool {
	return c.RemoteAPIURL != "" && c.RemoteAPIKey != ""
}

// StatsReportingEnabled reports whether traffic reporting is configured.
func (c *Config) StatsReportingEnabled() bool {
	return c.StatsReportURL != ""
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvString(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvSeconds(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

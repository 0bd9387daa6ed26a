package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataDir          string        // directory holding every collection file
	ReloadInterval   time.Duration // interval to rebuild the timeline index (default: 1h)
	WatchFiles       bool          // reload when files in DataDir change on disk
	WatchDebounce    time.Duration // quiet period before a watched change triggers a reload
	ResourceSeedFile string        // optional YAML list of resources merged in at startup (empty = disabled)

	// Redis (optional query cache, empty address = disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password when RedisAddr is set
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	CacheTTL              time.Duration // lifetime of a cached timeline query

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateBurst        int // token bucket size per client IP on mutating routes
	RateRefillPerMin int // tokens added per minute
}

// Path joins name onto the data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HRT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HRT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HRT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HRT_PRETTY_LOG", true),

		// Storage
		DataDir:          getenv("HRT_DATA_DIR", "./data"),
		ReloadInterval:   mustDuration("HRT_RELOAD_INTERVAL", time.Hour),
		WatchFiles:       mustBool("HRT_WATCH_FILES", true),
		WatchDebounce:    mustDuration("HRT_WATCH_DEBOUNCE", 250*time.Millisecond),
		ResourceSeedFile: getenv("HRT_RESOURCE_SEED_FILE", ""),

		// Redis settings
		RedisAddr:             getenv("HRT_REDIS_ADDR", ""),
		RedisUser:             getenv("HRT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("HRT_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("HRT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HRT_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		CacheTTL:              mustDuration("HRT_CACHE_TTL", 10*time.Minute),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("HRT_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("HRT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HRT_TRUST_PROXY", false),

		RateBurst:        getenvInt("HRT_RATE_BURST", 20),
		RateRefillPerMin: getenvInt("HRT_RATE_REFILL_PER_MIN", 20),
	}

	// Validate Redis password configuration
	if cfg.CacheEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: HRT_REDIS_PASSWORD is required when HRT_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.RateBurst < 1 {
		panic(fmt.Sprintf("❌ FATAL: HRT_RATE_BURST must be positive, got %d", cfg.RateBurst))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

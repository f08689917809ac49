package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional rotated log file.
	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxAgeDays int

	// Upstream feed configuration.
	USGSBaseURL     string
	UpstreamTimeout time.Duration
	UpstreamLimit   int
	QueryPolicyFile string

	RateLimitRPS   float64
	RateLimitBurst int
	// Peers whose X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []netip.Prefix

	// User accounts (feature-flagged via USERS_ENABLED / MONGO_URI).
	UsersEnabled  bool
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	JWTTTL        time.Duration

	// Contact messages (enabled when KAFKA_BROKERS is set).
	KafkaBrokers      []string
	KafkaContactTopic string
}

// ContactsEnabled reports whether contact messages can be published.
func (c *Config) ContactsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	jwtTTL, err := parsePositiveDuration("JWT_TTL", "24h")
	if err != nil {
		return nil, err
	}
	upstreamLimit, err := parsePositiveInt("UPSTREAM_LIMIT", 500)
	if err != nil {
		return nil, err
	}
	burst, err := parsePositiveInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("invalid RATE_LIMIT_RPS")
	}

	trustedProxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}

	mongoURI := os.Getenv("MONGO_URI")
	usersEnabled := mongoURI != ""
	if v := os.Getenv("USERS_ENABLED"); v != "" {
		usersEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LogFile:           os.Getenv("LOG_FILE"),
		LogFileMaxSizeMB:  parseIntOrDefault("LOG_FILE_MAX_SIZE_MB", 100),
		LogFileMaxAgeDays: parseIntOrDefault("LOG_FILE_MAX_AGE_DAYS", 7),

		USGSBaseURL:     sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
		UpstreamTimeout: upstreamTimeout,
		UpstreamLimit:   upstreamLimit,
		QueryPolicyFile: os.Getenv("QUERY_POLICY_FILE"),

		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		TrustedProxies: trustedProxies,

		UsersEnabled:  usersEnabled,
		MongoURI:      mongoURI,
		MongoDatabase: sharedcfg.EnvOrDefault("MONGO_DATABASE", "seismic"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        jwtTTL,

		KafkaBrokers:      parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaContactTopic: sharedcfg.EnvOrDefault("KAFKA_CONTACT_TOPIC", "contact-messages"),
	}

	if cfg.USGSBaseURL == "" {
		return nil, errors.New("USGS_BASE_URL is required")
	}
	if cfg.UsersEnabled && cfg.MongoURI == "" {
		return nil, errors.New("USERS_ENABLED is true but MONGO_URI is not set")
	}
	if cfg.UsersEnabled && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required when users are enabled")
	}
	if cfg.ContactsEnabled() && cfg.KafkaContactTopic == "" {
		return nil, errors.New("KAFKA_CONTACT_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseIntOrDefault(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// parseTrustedProxies reads a comma-separated list of CIDRs or bare IPs.
func parseTrustedProxies(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range parseBrokers(s) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", entry)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

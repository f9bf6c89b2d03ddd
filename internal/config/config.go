package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	UpstreamBaseURL   string
	UpstreamTimeout   time.Duration
	UpstreamUserAgent string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool

	MQTTEnabled     bool
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string
}

func LoadFromEnv() (Config, error) {
	appEnv := envString("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	baseURL := envString("UPSTREAM_BASE_URL", "https://aviationweather.gov/api/data/windsaloft")
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid UPSTREAM_BASE_URL %q (expected absolute URL)", baseURL)
	}
	upstreamTimeout, err := envDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	if upstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT %s (must be > 0)", upstreamTimeout)
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logQueries, err := envBool("SQLITE_LOG_QUERIES", false)
	if err != nil {
		return Config{}, err
	}

	mqttEnabled, err := envBool("MQTT_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", mqttPort)
	}
	topicPrefix := strings.Trim(envString("MQTT_TOPIC_PREFIX", "windsaloft"), "/")
	if topicPrefix == "" || strings.ContainsAny(topicPrefix, "+#") {
		return Config{}, fmt.Errorf("invalid MQTT_TOPIC_PREFIX %q", os.Getenv("MQTT_TOPIC_PREFIX"))
	}

	return Config{
		AppEnv:            appEnv,
		LogLevel:          level,
		HTTPAddr:          envString("HTTP_ADDR", ":8080"),
		UpstreamBaseURL:   baseURL,
		UpstreamTimeout:   upstreamTimeout,
		UpstreamUserAgent: envString("UPSTREAM_USER_AGENT", "windsaloft-server"),
		Driver:            envString("DB_DRIVER", "sqlite3"),
		DSN:               envString("SQLITE_DSN", ""),
		Path:              envString("SQLITE_PATH", "windsaloft.db"),
		MaxOpenConns:      maxOpenConns,
		MaxIdleConns:      maxIdleConns,
		ConnMaxLifetime:   connMaxLifetime,
		LogQueries:        logQueries,
		MQTTEnabled:       mqttEnabled,
		MQTTBroker:        envString("MQTT_BROKER", "localhost"),
		MQTTPort:          mqttPort,
		MQTTClientID:      envString("MQTT_CLIENT_ID", "windsaloft-server"),
		MQTTTopicPrefix:   topicPrefix,
	}, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q (expected true or false)", key, s)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

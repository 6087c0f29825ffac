package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration for the sync daemon.
type Config struct {
	APIBaseURL   string
	WebSocketURL string
	RedisAddr    string // when set, the Redis feed is used instead of WebSocket
	RedisChannel string
	ListenAddr   string
	HTTPTimeout  time.Duration
}

// Load reads configuration from environment variables. API_BASE_URL is
// required; exactly one of WS_URL or REDIS_ADDR selects the feed.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:   strings.TrimSpace(os.Getenv("API_BASE_URL")),
		WebSocketURL: strings.TrimSpace(os.Getenv("WS_URL")),
		RedisAddr:    strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisChannel: strings.TrimSpace(os.Getenv("REDIS_CHANNEL")),
		ListenAddr:   strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		HTTPTimeout:  10 * time.Second,
	}
	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("API_BASE_URL required")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.WebSocketURL == "" && cfg.RedisAddr == "" {
		return Config{}, errors.New("one of WS_URL or REDIS_ADDR required")
	}
	if cfg.RedisChannel == "" {
		cfg.RedisChannel = "prospect:events"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if raw := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return Config{}, errors.New("HTTP_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.HTTPTimeout = time.Duration(secs) * time.Second
	}
	return cfg, nil
}

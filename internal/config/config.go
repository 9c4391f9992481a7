package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	StockfishPath   string
	EngineDepth     int
	EngineThreads   int
	EngineMultiPV   int
	EngineHashMB    int
	EnginePoolSize  int
	EngineInitLimit time.Duration

	ChessComBaseURL   string
	ChessComTimeout   time.Duration
	ChessComUserAgent string
	GamesLimit        int
	TestUsername      string

	StreamPacing time.Duration

	RedisURL        string
	ArchiveCacheTTL time.Duration

	CORSAllowOrigins  []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":8000",
		StockfishPath:     "stockfish",
		EngineDepth:       18,
		EngineThreads:     2,
		EngineMultiPV:     3,
		EngineHashMB:      64,
		EnginePoolSize:    2,
		EngineInitLimit:   10 * time.Second,
		ChessComBaseURL:   "https://api.chess.com/pub",
		ChessComTimeout:   10 * time.Second,
		ChessComUserAgent: "chess-analysis-app/0.3",
		GamesLimit:        100,
		TestUsername:      "hikaru",
		StreamPacing:      100 * time.Millisecond,
		ArchiveCacheTTL:   24 * time.Hour,
		CORSAllowOrigins:  []string{"*"},
		RateLimitEnabled:  true,
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	// Engine
	if v := strings.TrimSpace(os.Getenv("STOCKFISH_PATH")); v != "" {
		cfg.StockfishPath = v
	}
	positiveInt("ENGINE_DEPTH", &cfg.EngineDepth)
	positiveInt("ENGINE_THREADS", &cfg.EngineThreads)
	positiveInt("ENGINE_MULTIPV", &cfg.EngineMultiPV)
	positiveInt("ENGINE_HASH_MB", &cfg.EngineHashMB)
	positiveInt("ENGINE_POOL_SIZE", &cfg.EnginePoolSize)
	positiveDuration("ENGINE_INIT_TIMEOUT", &cfg.EngineInitLimit)

	// Chess.com
	if v := strings.TrimSpace(os.Getenv("CHESSCOM_BASE_URL")); v != "" {
		cfg.ChessComBaseURL = strings.TrimRight(v, "/")
	}
	positiveDuration("CHESSCOM_TIMEOUT", &cfg.ChessComTimeout)
	if v := strings.TrimSpace(os.Getenv("CHESSCOM_USER_AGENT")); v != "" {
		cfg.ChessComUserAgent = v
	}
	positiveInt("GAMES_LIMIT", &cfg.GamesLimit)
	if v := strings.TrimSpace(os.Getenv("TEST_USERNAME")); v != "" {
		cfg.TestUsername = strings.ToLower(v)
	}

	// zero disables pacing
	if v := strings.TrimSpace(os.Getenv("STREAM_PACING")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.StreamPacing = d
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	positiveDuration("ARCHIVE_CACHE_TTL", &cfg.ArchiveCacheTTL)

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); v != "" {
		cfg.CORSAllowOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimitEnabled = b
		}
	}
	positiveInt("RATE_LIMIT_REQUESTS", &cfg.RateLimitRequests)
	positiveDuration("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.RedisURL != "" {
		u, err := url.Parse(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		if u.Scheme != "redis" && u.Scheme != "rediss" {
			return nil, fmt.Errorf("REDIS_URL: unsupported scheme %q", u.Scheme)
		}
	}
	if _, err := url.ParseRequestURI(cfg.ChessComBaseURL); err != nil {
		return nil, fmt.Errorf("CHESSCOM_BASE_URL: %w", err)
	}

	return cfg, nil
}

func positiveInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func positiveDuration(key string, dst *time.Duration) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

package reviewbuilder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chesscom-review/internal/boardimg"
	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/internal/chesscom"
	"github.com/park285/chesscom-review/internal/config"
	"github.com/park285/chesscom-review/internal/metrics"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/internal/stream"
	"github.com/park285/chesscom-review/internal/web"
)

type Deps struct {
	Client    *chesscom.Client
	Evaluator *chess.Evaluator
	Pipeline  *chess.Pipeline
	Stream    *stream.Handler
	Metrics   *metrics.Collector
	Messages  *msgcat.Catalog
	Redis     *redis.Client
	Router    http.Handler
}

// New wires every component from cfg. A missing engine binary is not fatal:
// the evaluator then reports itself unavailable and positions score neutral.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	collector := metrics.NewCollector("chessreview")

	// Archive cache (Redis optional)
	var rdb *redis.Client
	clientOpts := []chesscom.Option{
		chesscom.WithTimeout(cfg.ChessComTimeout),
		chesscom.WithUserAgent(cfg.ChessComUserAgent),
		chesscom.WithMessages(msgs),
		chesscom.WithBreaker(chesscom.NewBreaker(chesscom.DefaultBreakerConfig("chesscom"), logger)),
		chesscom.WithObserver(collector),
		chesscom.WithLogger(logger),
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opt, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		rdb = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, archive cache disabled", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			clientOpts = append(clientOpts, chesscom.WithCache(chesscom.NewRedisArchiveCache(rdb, cfg.ArchiveCacheTTL)))
		}
	}
	client := chesscom.NewClient(cfg.ChessComBaseURL, clientOpts...)

	// Engine
	evaluator := chess.NewEvaluator(ctx, chess.EvaluatorConfig{
		BinaryPath:  cfg.StockfishPath,
		Depth:       cfg.EngineDepth,
		Threads:     cfg.EngineThreads,
		MultiPV:     cfg.EngineMultiPV,
		HashMB:      cfg.EngineHashMB,
		PoolSize:    cfg.EnginePoolSize,
		InitTimeout: cfg.EngineInitLimit,
	}, logger, chess.WithObserver(collector))
	pipeline := chess.NewPipeline(evaluator, logger)

	streamHandler := stream.NewHandler(stream.HandlerConfig{
		Analyser:       pipeline,
		Messages:       msgs,
		Pacing:         cfg.StreamPacing,
		OriginPatterns: originPatterns(cfg.CORSAllowOrigins),
		Observer:       collector,
		Logger:         logger,
	})

	server := web.NewServer(web.Config{
		Games:             client,
		Engine:            evaluator,
		Stream:            streamHandler,
		Board:             boardimg.New(),
		Messages:          msgs,
		Metrics:           collector.Handler(),
		Observer:          collector,
		Logger:            logger,
		GamesLimit:        cfg.GamesLimit,
		TestUsername:      cfg.TestUsername,
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		RateLimitEnabled:  cfg.RateLimitEnabled,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	return &Deps{
		Client:    client,
		Evaluator: evaluator,
		Pipeline:  pipeline,
		Stream:    streamHandler,
		Metrics:   collector,
		Messages:  msgs,
		Redis:     rdb,
		Router:    server.Router(),
	}, nil
}

// Close stops the engine processes and the Redis client.
func (d *Deps) Close() error {
	var firstErr error
	if d.Evaluator != nil {
		if err := d.Evaluator.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// originPatterns turns CORS origins into websocket host patterns. "*" accepts any origin.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

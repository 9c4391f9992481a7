package chesscom

import (
	"time"

	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// NewBreaker trips on transport faults and 5xx replies. Answers about the
// player (404, 403) and rate limiting mean Chess.com is up, so they count as success.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			switch reviewdto.KindOf(err) {
			case "":
				return err == nil
			case reviewdto.KindUpstreamNotFound, reviewdto.KindUpstreamForbidden, reviewdto.KindUpstreamRateLimited:
				return true
			default:
				return false
			}
		},
	})
}

package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chesscom-review/internal/chess/uci"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"go.uber.org/zap"
)

var (
	ErrEngineUnavailable = errors.New("chess engine unavailable")
	ErrNoCandidates      = errors.New("engine returned no score")
)

const defaultEngineName = "Stockfish"

// Backend runs one fixed-limit search on a position.
type Backend interface {
	Search(ctx context.Context, fen string) (uci.SearchResponse, error)
	Name() string
	Close() error
}

// EvalObserver receives one call per evaluation; result is ok, fallback or unavailable.
type EvalObserver interface {
	ObserveEvaluation(result string, d time.Duration)
}

type EvaluatorConfig struct {
	BinaryPath  string
	Depth       int
	Threads     int
	MultiPV     int
	HashMB      int
	PoolSize    int
	InitTimeout time.Duration
}

func (c EvaluatorConfig) withDefaults() EvaluatorConfig {
	if c.Depth <= 0 {
		c.Depth = 18
	}
	if c.Threads <= 0 {
		c.Threads = 2
	}
	if c.MultiPV <= 0 {
		c.MultiPV = 3
	}
	if c.HashMB <= 0 {
		c.HashMB = 64
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = 10 * time.Second
	}
	return c
}

// Evaluator scores single positions. It never fails: engine faults degrade
// to a neutral result so a game analysis keeps going.
type Evaluator struct {
	cfg      EvaluatorConfig
	backend  Backend
	initErr  error
	logger   *zap.Logger
	observer EvalObserver
}

type EvaluatorOption func(*Evaluator)

func WithObserver(o EvalObserver) EvaluatorOption {
	return func(e *Evaluator) { e.observer = o }
}

// NewEvaluator starts the engine pool and checks one process comes up.
// On failure the evaluator is returned in the unavailable state.
func NewEvaluator(ctx context.Context, cfg EvaluatorConfig, logger *zap.Logger, opts ...EvaluatorOption) *Evaluator {
	cfg = cfg.withDefaults()
	backend, err := newPoolBackend(ctx, cfg)
	e := newEvaluator(cfg, backend, err, logger, opts...)
	if err != nil {
		e.logger.Warn("engine unavailable; positions will get neutral scores",
			zap.String("binary", cfg.BinaryPath),
			zap.Error(err))
	} else {
		e.logger.Info("engine ready",
			zap.String("name", backend.Name()),
			zap.Int("depth", cfg.Depth),
			zap.Int("multipv", cfg.MultiPV),
			zap.Int("pool", cfg.PoolSize))
	}
	return e
}

// NewEvaluatorWithBackend wires an already started backend; nil means unavailable.
func NewEvaluatorWithBackend(cfg EvaluatorConfig, backend Backend, logger *zap.Logger, opts ...EvaluatorOption) *Evaluator {
	var err error
	if backend == nil {
		err = ErrEngineUnavailable
	}
	return newEvaluator(cfg.withDefaults(), backend, err, logger, opts...)
}

func newEvaluator(cfg EvaluatorConfig, backend Backend, initErr error, logger *zap.Logger, opts ...EvaluatorOption) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{cfg: cfg, initErr: initErr, logger: logger}
	if initErr == nil {
		e.backend = backend
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Available() bool { return e != nil && e.backend != nil }

// Evaluate returns the score and top lines for fen, from White's point of view.
func (e *Evaluator) Evaluate(ctx context.Context, fen string) reviewdto.PositionAnalysis {
	start := time.Now()
	if !e.Available() {
		e.observe("unavailable", start)
		return reviewdto.NeutralAnalysis()
	}

	resp, err := e.backend.Search(ctx, fen)
	if err == nil {
		var analysis reviewdto.PositionAnalysis
		analysis, err = toAnalysis(fen, resp)
		if err == nil {
			e.observe("ok", start)
			return analysis
		}
	}

	e.logger.Warn("engine evaluation failed; using neutral score",
		zap.String("fen", fen),
		zap.Error(err))
	e.observe("fallback", start)
	return reviewdto.NeutralAnalysis()
}

// Info reports engine identity and search parameters.
func (e *Evaluator) Info() reviewdto.EngineInfo {
	if !e.Available() {
		return reviewdto.EngineInfo{Status: "error", Message: "Engine not available"}
	}
	name := strings.TrimSpace(e.backend.Name())
	if name == "" {
		name = defaultEngineName
	}
	return reviewdto.EngineInfo{
		Status: "ok",
		Name:   name,
		Depth:  e.cfg.Depth,
		Parameters: &reviewdto.EngineParameters{
			Threads: e.cfg.Threads,
			MultiPV: e.cfg.MultiPV,
			HashMB:  e.cfg.HashMB,
		},
	}
}

func (e *Evaluator) Close() error {
	if !e.Available() {
		return nil
	}
	return e.backend.Close()
}

func (e *Evaluator) observe(result string, start time.Time) {
	if e.observer != nil {
		e.observer.ObserveEvaluation(result, time.Since(start))
	}
}

func toAnalysis(fen string, resp uci.SearchResponse) (reviewdto.PositionAnalysis, error) {
	sign := 1
	if blackToMove(fen) {
		sign = -1
	}

	lines := make([]reviewdto.Line, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		lines = append(lines, reviewdto.Line{
			Move:  c.Move,
			Score: toScore(c.Score, sign),
			PV:    append([]string(nil), c.Principal...),
		})
	}

	switch {
	case len(lines) > 0:
		return reviewdto.PositionAnalysis{Eval: lines[0].Score, Lines: lines}, nil
	case resp.HasHeadline:
		return reviewdto.PositionAnalysis{Eval: toScore(resp.Headline, sign), Lines: lines}, nil
	default:
		return reviewdto.PositionAnalysis{}, ErrNoCandidates
	}
}

func toScore(s uci.Score, sign int) reviewdto.Score {
	kind := reviewdto.ScoreCentipawn
	if s.Mate {
		kind = reviewdto.ScoreMate
	}
	return reviewdto.Score{Type: kind, Value: s.Value * sign}
}

func blackToMove(fen string) bool {
	fields := strings.Fields(fen)
	return len(fields) > 1 && fields[1] == "b"
}

// poolBackend holds one engine process per in-flight search.
type poolBackend struct {
	pool   *uci.Pool
	limits uci.Limits
	name   string
}

func newPoolBackend(ctx context.Context, cfg EvaluatorConfig) (*poolBackend, error) {
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Options:    uci.Options{Threads: cfg.Threads, HashMB: cfg.HashMB, MultiPV: cfg.MultiPV},
		Capacity:   cfg.PoolSize,
	})
	if err != nil {
		return nil, err
	}

	warmCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout)
	defer cancel()
	session, err := pool.Acquire(warmCtx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}
	name := session.Name()
	pool.Release(session, nil)

	return &poolBackend{pool: pool, limits: uci.Limits{Depth: cfg.Depth}, name: name}, nil
}

func (b *poolBackend) Search(ctx context.Context, fen string) (uci.SearchResponse, error) {
	session, err := b.pool.Acquire(ctx)
	if err != nil {
		return uci.SearchResponse{}, err
	}
	resp, err := session.Search(ctx, uci.SearchRequest{FEN: fen, Limits: b.limits})
	b.pool.Release(session, err)
	return resp, err
}

func (b *poolBackend) Name() string { return b.name }

func (b *poolBackend) Close() error { return b.pool.Close() }

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"go.uber.org/zap"
)

// DefaultPacing is the pause between two analysis messages.
const DefaultPacing = 100 * time.Millisecond

var ErrClosed = errors.New("stream session closed")

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateAnalyzing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAnalyzing:
		return "analyzing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sink delivers server messages to one client.
type Sink interface {
	Send(ctx context.Context, msg reviewdto.StreamMessage) error
}

// Analyser streams per-position results for a movetext.
type Analyser interface {
	Stream(ctx context.Context, moveText string, emit func(ply int, a reviewdto.PositionAnalysis) error) (chess.Summary, error)
}

// RunObserver counts finished analyses by result.
type RunObserver interface {
	AnalysisFinished(result string)
}

type Config struct {
	ID       string
	PGNID    string
	Sink     Sink
	Analyser Analyser
	Messages *msgcat.Catalog
	Pacing   time.Duration
	Observer RunObserver
	Logger   *zap.Logger
}

// Session drives one analysis connection through
// Connecting → Open → Analyzing → Open … → Closed.
type Session struct {
	id       string
	pgnID    string
	sink     Sink
	analyser Analyser
	msgs     *msgcat.Catalog
	pacing   time.Duration
	observer RunObserver
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

func NewSession(cfg Config) *Session {
	if cfg.Messages == nil {
		cfg.Messages = msgcat.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	return &Session{
		id:       cfg.ID,
		pgnID:    cfg.PGNID,
		sink:     cfg.Sink,
		analyser: cfg.Analyser,
		msgs:     cfg.Messages,
		pacing:   cfg.Pacing,
		observer: cfg.Observer,
		logger:   cfg.Logger.With(zap.String("conn", cfg.ID), zap.String("pgn_id", cfg.PGNID)),
		state:    StateConnecting,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves from one of the allowed states to next.
func (s *Session) transition(next State, from ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range from {
		if s.state == f {
			s.state = next
			return true
		}
	}
	return false
}

// Open marks the connection accepted and greets the client.
func (s *Session) Open(ctx context.Context) error {
	if !s.transition(StateOpen, StateConnecting) {
		return ErrClosed
	}
	s.logger.Info("analysis stream connected")
	return s.send(ctx, reviewdto.NewStatus(s.msgs.RenderOr("stream.connected", nil, "Connected, starting analysis...")))
}

// Handle processes one client request. The returned error is non-nil only
// when the connection can no longer be written to.
func (s *Session) Handle(ctx context.Context, req reviewdto.StreamRequest) error {
	if s.State() == StateClosed {
		return ErrClosed
	}

	switch req.Type {
	case reviewdto.TypeStartAnalysis:
		if strings.TrimSpace(req.PGN) == "" {
			return s.sendError(ctx, s.msgs.RenderOr("stream.no_pgn", nil, "No PGN provided"))
		}
		return s.analyse(ctx, req.PGN)
	default:
		msg := s.msgs.RenderOr("stream.unknown_type", map[string]any{"Type": req.Type}, "Unknown message type: "+req.Type)
		return s.sendError(ctx, msg)
	}
}

// Reject reports an undecodable client frame without changing state.
func (s *Session) Reject(ctx context.Context) error {
	return s.sendError(ctx, s.msgs.RenderOr("api.invalid_json", nil, "Invalid JSON"))
}

func (s *Session) Close() {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	s.mu.Unlock()
	if prev != StateClosed {
		s.logger.Info("analysis stream closed", zap.Stringer("from", prev))
	}
}

func (s *Session) analyse(ctx context.Context, pgn string) error {
	if !s.transition(StateAnalyzing, StateOpen) {
		return ErrClosed
	}
	defer s.transition(StateOpen, StateAnalyzing)

	start := time.Now()
	summary, err := s.run(ctx, pgn)

	var gone *sinkError
	switch {
	case errors.As(err, &gone) || ctx.Err() != nil:
		s.finished("aborted")
		if gone != nil {
			return gone.err
		}
		return ctx.Err()
	case errors.Is(err, reviewdto.ErrParseFailure) || (err == nil && summary.Positions == 0):
		s.finished("empty")
		return s.sendError(ctx, s.msgs.RenderOr("stream.empty", nil, "Failed to analyze game"))
	case err != nil:
		s.logger.Error("analysis failed", zap.Error(err))
		s.finished("failed")
		return s.sendError(ctx, s.msgs.RenderOr("stream.fault", map[string]any{"Error": err.Error()}, "Analysis error: "+err.Error()))
	}

	s.finished("complete")
	s.logger.Info("analysis complete",
		zap.Int("positions", summary.Positions),
		zap.Duration("elapsed", time.Since(start)))
	msg := s.msgs.RenderOr("stream.complete", map[string]any{"Count": summary.Positions},
		fmt.Sprintf("Analysis complete - %d positions analyzed", summary.Positions))
	return s.send(ctx, reviewdto.NewComplete(msg, summary.Positions, summary.Opening))
}

// run invokes the analyser, turning a panic into an ordinary fault.
func (s *Session) run(ctx context.Context, pgn string) (summary chess.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.analyser.Stream(ctx, pgn, func(ply int, a reviewdto.PositionAnalysis) error {
		if err := s.sink.Send(ctx, reviewdto.NewAnalysis(ply, a)); err != nil {
			return &sinkError{err: err}
		}
		return s.pace(ctx)
	})
}

func (s *Session) pace(ctx context.Context) error {
	if s.pacing <= 0 {
		return nil
	}
	t := time.NewTimer(s.pacing)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Session) finished(result string) {
	if s.observer != nil {
		s.observer.AnalysisFinished(result)
	}
}

func (s *Session) sendError(ctx context.Context, msg string) error {
	return s.send(ctx, reviewdto.NewError(msg))
}

func (s *Session) send(ctx context.Context, msg reviewdto.StreamMessage) error {
	if s.State() == StateClosed {
		return ErrClosed
	}
	return s.sink.Send(ctx, msg)
}

// sinkError marks a failed write so it is not reported back to the client.
type sinkError struct{ err error }

func (e *sinkError) Error() string { return "send: " + e.err.Error() }

func (e *sinkError) Unwrap() error { return e.err }

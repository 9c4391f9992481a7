package stream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	mu      sync.Mutex
	msgs    []reviewdto.StreamMessage
	failAt  int
	failErr error
}

func (s *recordSink) Send(_ context.Context, msg reviewdto.StreamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil && len(s.msgs) == s.failAt {
		return s.failErr
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m.MessageType())
	}
	return out
}

func (s *recordSink) last() reviewdto.StreamMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[len(s.msgs)-1]
}

type flatEvaluator struct{}

func (flatEvaluator) Evaluate(context.Context, string) reviewdto.PositionAnalysis {
	return reviewdto.PositionAnalysis{
		Eval:  reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: 15},
		Lines: []reviewdto.Line{{Move: "e2e4", Score: reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: 15}}},
	}
}

type analyserFunc func(ctx context.Context, text string, emit func(int, reviewdto.PositionAnalysis) error) (chess.Summary, error)

func (f analyserFunc) Stream(ctx context.Context, text string, emit func(int, reviewdto.PositionAnalysis) error) (chess.Summary, error) {
	return f(ctx, text, emit)
}

type runCounter struct {
	mu      sync.Mutex
	results []string
}

func (r *runCounter) AnalysisFinished(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func newTestSession(t *testing.T, sink Sink, analyser Analyser, obs RunObserver) *Session {
	t.Helper()
	s := NewSession(Config{ID: "c1", PGNID: "p1", Sink: sink, Analyser: analyser, Observer: obs})
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestOpenSendsStatus(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)

	assert.Equal(t, StateOpen, s.State())
	require.Equal(t, []string{reviewdto.TypeStatus}, sink.types())
	assert.Equal(t, reviewdto.NewStatus("Connected, starting analysis..."), sink.msgs[0])
}

func TestStartAnalysisStreamsEveryPly(t *testing.T) {
	sink := &recordSink{}
	runs := &runCounter{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), runs)

	err := s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. e4 e5 2. Nf3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"status", "analysis", "analysis", "analysis", "analysis", "complete"}, sink.types())
	for i, m := range sink.msgs[1:5] {
		a := m.(reviewdto.AnalysisMessage)
		assert.Equal(t, i, a.Ply)
		assert.Equal(t, 15, a.Eval.Value)
	}
	done := sink.last().(reviewdto.CompleteMessage)
	assert.Equal(t, "Analysis complete - 4 positions analyzed", done.Message)
	assert.Equal(t, 4, done.Count)
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, []string{"complete"}, runs.results)
}

func TestSessionAcceptsSecondAnalysis(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)

	req := reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. d4"}
	require.NoError(t, s.Handle(context.Background(), req))
	require.NoError(t, s.Handle(context.Background(), req))

	assert.Equal(t, []string{"status", "analysis", "analysis", "complete", "analysis", "analysis", "complete"}, sink.types())
}

func TestMissingPGNStaysOpen(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)

	require.NoError(t, s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis}))

	assert.Equal(t, reviewdto.NewError("No PGN provided"), sink.last())
	assert.Equal(t, StateOpen, s.State())
}

func TestUnknownTypeNamesIt(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)

	require.NoError(t, s.Handle(context.Background(), reviewdto.StreamRequest{Type: "pause"}))

	assert.Equal(t, reviewdto.NewError("Unknown message type: pause"), sink.last())
	assert.Equal(t, StateOpen, s.State())
}

func TestUnparsablePGNReportsFailure(t *testing.T) {
	sink := &recordSink{}
	runs := &runCounter{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), runs)

	require.NoError(t, s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "invalid pgn"}))

	assert.Equal(t, []string{"status", "error"}, sink.types())
	assert.Equal(t, reviewdto.NewError("Failed to analyze game"), sink.last())
	assert.Equal(t, []string{"empty"}, runs.results)
}

func TestAnalyserFaultIsReported(t *testing.T) {
	sink := &recordSink{}
	boom := analyserFunc(func(context.Context, string, func(int, reviewdto.PositionAnalysis) error) (chess.Summary, error) {
		return chess.Summary{}, errors.New("engine exploded")
	})
	s := newTestSession(t, sink, boom, nil)

	require.NoError(t, s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. e4"}))

	assert.Equal(t, reviewdto.NewError("Analysis error: engine exploded"), sink.last())
	assert.Equal(t, StateOpen, s.State())
}

func TestAnalyserPanicIsReported(t *testing.T) {
	sink := &recordSink{}
	panicky := analyserFunc(func(context.Context, string, func(int, reviewdto.PositionAnalysis) error) (chess.Summary, error) {
		panic("nil board")
	})
	s := newTestSession(t, sink, panicky, nil)

	require.NoError(t, s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. e4"}))

	assert.Equal(t, reviewdto.NewError("Analysis error: nil board"), sink.last())
	assert.Equal(t, StateOpen, s.State())
}

func TestSinkFailureEndsAnalysisQuietly(t *testing.T) {
	gone := errors.New("broken pipe")
	sink := &recordSink{failAt: 2, failErr: gone}
	runs := &runCounter{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), runs)

	err := s.Handle(context.Background(), reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. e4 e5 2. Nf3"})

	assert.ErrorIs(t, err, gone)
	assert.Equal(t, []string{"status", "analysis"}, sink.types())
	assert.Equal(t, []string{"aborted"}, runs.results)
}

func TestClosedSessionSendsNothing(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)
	s.Close()

	err := s.Handle(context.Background(), reviewdto.StreamRequest{Type: "pause"})

	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, StateClosed, s.State())
	assert.Len(t, sink.msgs, 1)
}

func TestRejectBadFrame(t *testing.T) {
	sink := &recordSink{}
	s := newTestSession(t, sink, chess.NewPipeline(flatEvaluator{}, nil), nil)

	require.NoError(t, s.Reject(context.Background()))
	assert.Equal(t, reviewdto.NewError("Invalid JSON"), sink.last())
}

func TestHubMembership(t *testing.T) {
	h := NewHub()
	h.Join(GroupName("abc"), "c1")
	h.Join(GroupName("abc"), "c2")
	h.Join(GroupName("xyz"), "c3")

	assert.Equal(t, 2, h.Members("analysis_abc"))
	assert.Equal(t, 3, h.Total())

	h.Leave(GroupName("abc"), "c1")
	h.Leave(GroupName("abc"), "c2")
	h.Leave(GroupName("nope"), "c9")
	assert.Equal(t, 0, h.Members("analysis_abc"))
	assert.Equal(t, 1, h.Total())
}

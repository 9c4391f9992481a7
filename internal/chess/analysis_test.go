package chess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvaluator struct {
	fens []string
}

func (r *recordingEvaluator) Evaluate(_ context.Context, fen string) reviewdto.PositionAnalysis {
	r.fens = append(r.fens, fen)
	return reviewdto.PositionAnalysis{
		Eval:  reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: len(r.fens)},
		Lines: []reviewdto.Line{},
	}
}

// en passant field formatting differs between FEN writers
const afterE4Board = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq"

const ruyLopez = `[Event "Live Chess"]
[White "alice"]
[Black "bob"]
[Result "*"]

1. e4 {[%clk 0:03:00]} e5 2. Nf3 Nc6 3. Bb5 *`

func TestAnalyseReturnsOneResultPerPosition(t *testing.T) {
	eval := &recordingEvaluator{}
	p := NewPipeline(eval, nil)

	got := p.Analyse(context.Background(), ruyLopez)

	require.Len(t, got, 6)
	assert.Equal(t, startFEN, eval.fens[0])
	assert.True(t, strings.HasPrefix(eval.fens[1], afterE4Board), eval.fens[1])
	for i, a := range got {
		assert.Equal(t, i+1, a.Eval.Value)
	}
}

func TestAnalyseUnparsableIsEmpty(t *testing.T) {
	p := NewPipeline(&recordingEvaluator{}, nil)

	for _, text := range []string{"", "   ", "invalid pgn", "1. Zz9 Qq0"} {
		got := p.Analyse(context.Background(), text)
		assert.NotNil(t, got, text)
		assert.Empty(t, got, text)
	}
}

func TestAnalyseHeaderOnlyGivesStartPosition(t *testing.T) {
	eval := &recordingEvaluator{}
	got := NewPipeline(eval, nil).Analyse(context.Background(), "[Event \"x\"]\n\n*")
	require.Len(t, got, 1)
	assert.Equal(t, []string{startFEN}, eval.fens)
}

func TestAnalyseStopsAtIllegalMove(t *testing.T) {
	eval := &recordingEvaluator{}
	got := NewPipeline(eval, nil).Analyse(context.Background(), "1. e4 e5 2. Ke3 Nc6")
	assert.Len(t, got, 3)
}

func TestAnalyseWithUnavailableEngine(t *testing.T) {
	e := NewEvaluatorWithBackend(EvaluatorConfig{}, nil, nil)
	got := NewPipeline(e, nil).Analyse(context.Background(), "1. d4 d5")
	require.Len(t, got, 3)
	for _, a := range got {
		assert.Equal(t, reviewdto.NeutralAnalysis(), a)
	}
}

func TestStreamEmitsInOrderWithOpening(t *testing.T) {
	p := NewPipeline(&recordingEvaluator{}, nil)

	var plies []int
	summary, err := p.Stream(context.Background(), ruyLopez, func(ply int, _ reviewdto.PositionAnalysis) error {
		plies = append(plies, ply)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, plies)
	assert.Equal(t, 6, summary.Positions)
	require.NotNil(t, summary.Opening)
	assert.Contains(t, summary.Opening.Name, "Ruy Lopez")
}

func TestStreamParseFailureEmitsNothing(t *testing.T) {
	p := NewPipeline(&recordingEvaluator{}, nil)

	called := false
	_, err := p.Stream(context.Background(), "invalid pgn", func(int, reviewdto.PositionAnalysis) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, reviewdto.ErrParseFailure)
	assert.False(t, called)
}

func TestStreamStopsWhenEmitFails(t *testing.T) {
	eval := &recordingEvaluator{}
	p := NewPipeline(eval, nil)
	sinkErr := errors.New("client gone")

	summary, err := p.Stream(context.Background(), ruyLopez, func(ply int, _ reviewdto.PositionAnalysis) error {
		if ply == 2 {
			return sinkErr
		}
		return nil
	})

	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 2, summary.Positions)
	assert.Len(t, eval.fens, 3)
}

func TestStreamHonoursCancellation(t *testing.T) {
	eval := &recordingEvaluator{}
	ctx, cancel := context.WithCancel(context.Background())

	_, err := NewPipeline(eval, nil).Stream(ctx, ruyLopez, func(ply int, _ reviewdto.PositionAnalysis) error {
		if ply == 1 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, eval.fens, 2)
}

func TestScanTokens(t *testing.T) {
	text := `[White "a"]
1. e4! {book} e5 (1... c5 2. Nf3) 2. Nf3?! $1 Nc6 3... a6 1-0`
	assert.Equal(t, []string{"e4", "e5", "Nf3", "Nc6", "a6"}, scanTokens(text))
}

func TestScanTokensNormalisesZeroCastling(t *testing.T) {
	assert.Equal(t, []string{"O-O", "O-O-O", "O-O"}, scanTokens("10. 0-0 0-0-0+ 11. O-O 0-1"))
}

func TestAnalyseAcceptsZeroCastling(t *testing.T) {
	p := NewPipeline(&recordingEvaluator{}, nil)

	got := p.Analyse(context.Background(), "1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 4. 0-0 Nf6 *")

	assert.Len(t, got, 9)
}

func TestStepAt(t *testing.T) {
	replay, err := ParseMoveText(ruyLopez)
	require.NoError(t, err)
	assert.Equal(t, 5, replay.Len())

	start, err := replay.StepAt(0)
	require.NoError(t, err)
	assert.Nil(t, start.LastMove())

	step, err := replay.StepAt(1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(step.Game.FEN(), afterE4Board), step.Game.FEN())
	assert.Equal(t, "e2e4", step.UCI)
	assert.Equal(t, "e4", step.SAN)
	require.NotNil(t, step.LastMove())
	assert.Equal(t, "e2", step.LastMove().S1().String())
	assert.Equal(t, "e4", step.LastMove().S2().String())

	_, err = replay.StepAt(6)
	assert.Error(t, err)
	_, err = replay.StepAt(-1)
	assert.Error(t, err)
}

func TestFinalStopsAtLastLegalMove(t *testing.T) {
	replay, err := ParseMoveText("1. e4 e5 2. Ke3 Nc6")
	require.NoError(t, err)

	last, err := replay.Final()
	require.NoError(t, err)
	assert.Equal(t, 2, last.Ply)
	assert.Equal(t, "e5", last.SAN)
}

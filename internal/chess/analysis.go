package chess

import (
	"context"

	"github.com/park285/chesscom-review/pkg/reviewdto"
	"go.uber.org/zap"
)

// PositionEvaluator scores one position; it must not fail.
type PositionEvaluator interface {
	Evaluate(ctx context.Context, fen string) reviewdto.PositionAnalysis
}

// Summary describes a finished analysis run.
type Summary struct {
	Positions int
	Opening   *reviewdto.Opening
}

type Pipeline struct {
	eval   PositionEvaluator
	logger *zap.Logger
}

func NewPipeline(eval PositionEvaluator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{eval: eval, logger: logger}
}

// Stream evaluates the start position and every position after a legal
// move, handing each result to emit as soon as it is ready. Parse failures
// are reported before anything is emitted.
func (p *Pipeline) Stream(ctx context.Context, moveText string, emit func(ply int, a reviewdto.PositionAnalysis) error) (Summary, error) {
	replay, err := ParseMoveText(moveText)
	if err != nil {
		return Summary{}, &reviewdto.Failure{Kind: reviewdto.KindParseFailure, Message: "could not parse PGN", Cause: err}
	}

	var last Step
	count, err := replay.Walk(func(s Step) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = s
		return emit(s.Ply, p.eval.Evaluate(ctx, s.FEN))
	})
	summary := Summary{Positions: count, Opening: OpeningOf(last.Game)}
	if err != nil {
		return summary, err
	}
	if count < replay.Len()+1 {
		p.logger.Info("replay stopped at illegal move",
			zap.Int("parsed_moves", replay.Len()),
			zap.Int("evaluated", count))
	}
	return summary, nil
}

// Analyse returns one result per reached position, or an empty slice when
// the movetext cannot be parsed.
func (p *Pipeline) Analyse(ctx context.Context, moveText string) []reviewdto.PositionAnalysis {
	out := []reviewdto.PositionAnalysis{}
	_, err := p.Stream(ctx, moveText, func(_ int, a reviewdto.PositionAnalysis) error {
		out = append(out, a)
		return nil
	})
	if err != nil {
		p.logger.Debug("analysis ended early", zap.Error(err))
	}
	return out
}

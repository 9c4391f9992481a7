package games

import (
	"strings"

	"github.com/park285/chesscom-review/internal/domain"
)

// Outcome is the result of a game seen from one player's side.
type Outcome string

const (
	Win  Outcome = "Win"
	Loss Outcome = "Loss"
	Draw Outcome = "Draw"
)

func (o Outcome) String() string { return string(o) }

// OutcomeFor decides the result of g for viewer. Equal result codes on both sides mean a draw.
func OutcomeFor(g domain.RawGame, viewer string) Outcome {
	if g.White.Result == g.Black.Result {
		return Draw
	}
	winner := g.Black.Username
	if g.White.Result == domain.ResultWin {
		winner = g.White.Username
	}
	if strings.EqualFold(strings.TrimSpace(winner), strings.TrimSpace(viewer)) {
		return Win
	}
	return Loss
}

// DisplayClass maps an outcome to the styling class used by the pages.
func DisplayClass(o Outcome) string {
	switch o {
	case Win:
		return "success"
	case Loss:
		return "danger"
	default:
		return "neutral"
	}
}

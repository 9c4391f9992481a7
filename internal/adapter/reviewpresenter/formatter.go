package reviewpresenter

import (
	"fmt"
	"strings"

	chesslib "github.com/corentings/chess/v2"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

const bestMovesShown = 5

// Formatter renders engine results as short human-readable text.
type Formatter struct {
	msgs *msgcat.Catalog
}

func NewFormatter(msgs *msgcat.Catalog) *Formatter {
	if msgs == nil {
		msgs = msgcat.Default()
	}
	return &Formatter{msgs: msgs}
}

// Score reads "Mate in N" for mate scores and "+0.34 pawns" otherwise.
func (f *Formatter) Score(s reviewdto.Score) string {
	if s.IsMate() {
		n := s.Value
		if n < 0 {
			n = -n
		}
		return f.msgs.RenderOr("engine.mate", map[string]any{"Moves": n}, fmt.Sprintf("Mate in %d", n))
	}
	pawns := fmt.Sprintf("%+.2f", float64(s.Value)/100.0)
	return f.msgs.RenderOr("engine.pawns", map[string]any{"Pawns": pawns}, pawns+" pawns")
}

// Report is the evalstart summary: the score line plus up to five best moves in SAN.
func (f *Formatter) Report(fen string, a reviewdto.PositionAnalysis) string {
	var sb strings.Builder
	sb.WriteString("Initial position evaluation: ")
	sb.WriteString(f.Score(a.Eval))
	if len(a.Lines) > 0 {
		if moves := PrincipalSAN(fen, a.Lines[0].PV, bestMovesShown); len(moves) > 0 {
			sb.WriteString("\nBest moves: ")
			sb.WriteString(strings.Join(moves, " "))
		}
	}
	return sb.String()
}

// Turn names the side to move in fen.
func Turn(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return "Black to move"
	}
	return "White to move"
}

// PlyCaption labels a board image, e.g. "Ply 3: Nf3".
func PlyCaption(ply int, san string) string {
	if ply == 0 || san == "" {
		return "Start position"
	}
	return fmt.Sprintf("Ply %d: %s", ply, san)
}

// PrincipalSAN converts up to limit UCI moves from fen into SAN, stopping at the first illegal one.
func PrincipalSAN(fen string, pv []string, limit int) []string {
	if len(pv) == 0 {
		return nil
	}
	game := chesslib.NewGame()
	if strings.TrimSpace(fen) != "" {
		opt, err := chesslib.FEN(fen)
		if err != nil {
			return nil
		}
		game = chesslib.NewGame(opt)
	}

	out := make([]string, 0, min(limit, len(pv)))
	for _, uci := range pv {
		if len(out) >= limit {
			break
		}
		pos := game.Position()
		mv, err := chesslib.UCINotation{}.Decode(pos, uci)
		if err != nil {
			break
		}
		san := chesslib.AlgebraicNotation{}.Encode(pos, mv)
		if err := game.PushNotationMove(uci, chesslib.UCINotation{}, nil); err != nil {
			break
		}
		out = append(out, san)
	}
	return out
}

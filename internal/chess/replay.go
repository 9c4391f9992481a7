package chess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

var ErrUnparsable = errors.New("pgn could not be parsed")

// Replay is a parsed movetext ready to be applied move by move.
type Replay struct {
	start    func(*chesslib.Game)
	notation chesslib.Notation
	moves    []string
}

// Len is the number of moves the parser recognised; replay may still stop earlier.
func (r *Replay) Len() int { return len(r.moves) }

// ParseMoveText parses a PGN or bare movetext. It falls back to a lenient
// token scan so a game with an illegal move still yields its legal prefix.
func ParseMoveText(text string) (*Replay, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnparsable
	}

	if replay, ok := parseStrict(text); ok {
		return replay, nil
	}
	return parseLenient(text)
}

func parseStrict(text string) (*Replay, bool) {
	option, err := chesslib.PGN(strings.NewReader(text))
	if err != nil {
		return nil, false
	}
	parsed := chesslib.NewGame(option)
	moves := parsed.Moves()
	positions := parsed.Positions()
	if len(moves) < len(scanTokens(text)) {
		return nil, false
	}
	if len(positions) < len(moves)+1 {
		return nil, false
	}

	start, err := chesslib.FEN(positions[0].String())
	if err != nil {
		return nil, false
	}
	encoded := make([]string, 0, len(moves))
	notation := chesslib.UCINotation{}
	for i, mv := range moves {
		encoded = append(encoded, notation.Encode(positions[i], mv))
	}
	return &Replay{start: start, notation: notation, moves: encoded}, true
}

var (
	tagPattern      = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
	commentPattern  = regexp.MustCompile(`\{[^}]*\}|;[^\n]*`)
	nagPattern      = regexp.MustCompile(`\$\d+`)
	moveNumPattern  = regexp.MustCompile(`^\d+\.+`)
	annotationChars = "!?+#"
)

func parseLenient(text string) (*Replay, error) {
	tokens := scanTokens(text)
	if len(tokens) == 0 {
		return nil, ErrUnparsable
	}

	start := func(*chesslib.Game) {}
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], "FEN") {
			opt, err := chesslib.FEN(m[2])
			if err != nil {
				return nil, fmt.Errorf("%w: bad FEN tag: %v", ErrUnparsable, err)
			}
			start = opt
		}
	}

	probe := chesslib.NewGame(start)
	if err := probe.PushNotationMove(tokens[0], chesslib.AlgebraicNotation{}, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return &Replay{start: start, notation: chesslib.AlgebraicNotation{}, moves: tokens}, nil
}

// scanTokens strips tags, comments, variations, NAGs, move numbers and
// results, leaving SAN move tokens.
func scanTokens(text string) []string {
	body := tagPattern.ReplaceAllString(text, " ")
	body = commentPattern.ReplaceAllString(body, " ")
	body = stripVariations(body)
	body = nagPattern.ReplaceAllString(body, " ")

	var tokens []string
	for _, field := range strings.Fields(body) {
		field = moveNumPattern.ReplaceAllString(field, "")
		field = strings.TrimRight(field, annotationChars)
		switch field {
		case "", "1-0", "0-1", "1/2-1/2", "*":
			continue
		case "0-0":
			field = "O-O"
		case "0-0-0":
			field = "O-O-O"
		}
		tokens = append(tokens, field)
	}
	return tokens
}

func stripVariations(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Step is one position reached during replay. Ply 0 is the start position.
type Step struct {
	Ply  int
	FEN  string
	UCI  string
	SAN  string
	Game *chesslib.Game
}

// Walk applies moves in order, calling fn for the start position and after
// every legal move. An illegal move ends the walk without error.
func (r *Replay) Walk(fn func(Step) error) (int, error) {
	game := chesslib.NewGame(r.start)
	if err := fn(Step{Ply: 0, FEN: game.FEN(), Game: game}); err != nil {
		return 0, err
	}

	steps := 1
	for i, mv := range r.moves {
		before := game.Position()
		if err := game.PushNotationMove(mv, r.notation, nil); err != nil {
			break
		}
		played := game.Moves()
		last := played[len(played)-1]
		step := Step{
			Ply:  i + 1,
			FEN:  game.FEN(),
			UCI:  chesslib.UCINotation{}.Encode(before, last),
			SAN:  chesslib.AlgebraicNotation{}.Encode(before, last),
			Game: game,
		}
		if err := fn(step); err != nil {
			return steps, err
		}
		steps++
	}
	return steps, nil
}

var ecoBook = sync.OnceValue(opening.NewBookECO)

// OpeningOf looks the game's moves up in the ECO book.
func OpeningOf(game *chesslib.Game) *reviewdto.Opening {
	if game == nil || len(game.Moves()) == 0 {
		return nil
	}
	eco := ecoBook().Find(game.Moves())
	if eco == nil {
		return nil
	}
	return &reviewdto.Opening{Code: eco.Code(), Name: eco.Title()}
}

// StepAt replays up to ply and returns that step with its own copy of the game.
func (r *Replay) StepAt(ply int) (Step, error) {
	if ply < 0 {
		return Step{}, fmt.Errorf("ply %d out of range", ply)
	}
	var found *Step
	errStop := errors.New("stop")
	_, err := r.Walk(func(s Step) error {
		if s.Ply == ply {
			s.Game = s.Game.Clone()
			found = &s
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return Step{}, err
	}
	if found == nil {
		return Step{}, fmt.Errorf("ply %d out of range", ply)
	}
	return *found, nil
}

// LastMove is the move that produced the step's position, nil at ply 0.
func (s Step) LastMove() *chesslib.Move {
	if s.Game == nil {
		return nil
	}
	moves := s.Game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// Final replays every legal move and returns the last step reached.
func (r *Replay) Final() (Step, error) {
	var last Step
	if _, err := r.Walk(func(s Step) error {
		last = s
		return nil
	}); err != nil {
		return Step{}, err
	}
	last.Game = last.Game.Clone()
	return last, nil
}

package games

import (
	"encoding/base64"
	"fmt"

	"github.com/park285/chesscom-review/internal/domain"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

const endLayout = "2006-01-02 15:04 UTC"

// Transform flattens a raw archive entry into the record served to viewer.
func Transform(g domain.RawGame, viewer string) reviewdto.PresentationGame {
	outcome := OutcomeFor(g, viewer)
	return reviewdto.PresentationGame{
		End:          g.EndedAt().Format(endLayout),
		EndTime:      g.EndTime,
		White:        g.White.Username,
		WhiteRating:  g.White.Rating,
		WhiteResult:  g.White.Result,
		Black:        g.Black.Username,
		BlackRating:  g.Black.Rating,
		BlackResult:  g.Black.Result,
		TimeClass:    g.TimeClass,
		PGN:          g.PGN,
		PGNID:        EncodePGNID(g.PGN),
		URL:          g.URL,
		Outcome:      outcome.String(),
		OutcomeClass: DisplayClass(outcome),
	}
}

func TransformAll(raw []domain.RawGame, viewer string) []reviewdto.PresentationGame {
	out := make([]reviewdto.PresentationGame, 0, len(raw))
	for _, g := range raw {
		out = append(out, Transform(g, viewer))
	}
	return out
}

// EncodePGNID is URL-safe base64 of the move text with the padding stripped.
func EncodePGNID(pgn string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(pgn))
}

// DecodePGNID reverses EncodePGNID. Padded input is accepted too.
func DecodePGNID(id string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(trimPadding(id))
	if err != nil {
		return "", fmt.Errorf("decode pgn id: %w", err)
	}
	return string(raw), nil
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}

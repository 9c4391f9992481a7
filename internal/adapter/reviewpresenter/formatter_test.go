package reviewpresenter

import (
	"testing"

	"github.com/park285/chesscom-review/internal/domain"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestScore(t *testing.T) {
	f := NewFormatter(nil)
	cases := []struct {
		in   reviewdto.Score
		want string
	}{
		{reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: 34}, "+0.34 pawns"},
		{reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: -120}, "-1.20 pawns"},
		{reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: 0}, "+0.00 pawns"},
		{reviewdto.Score{Type: reviewdto.ScoreMate, Value: 3}, "Mate in 3"},
		{reviewdto.Score{Type: reviewdto.ScoreMate, Value: -2}, "Mate in 2"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.Score(tc.in))
	}
}

func TestReport(t *testing.T) {
	f := NewFormatter(nil)
	a := reviewdto.PositionAnalysis{
		Eval: reviewdto.Score{Type: reviewdto.ScoreCentipawn, Value: 25},
		Lines: []reviewdto.Line{{
			Move: "e2e4",
			PV:   []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5a4"},
		}},
	}

	got := f.Report(startFEN, a)

	assert.Equal(t, "Initial position evaluation: +0.25 pawns\nBest moves: e4 e5 Nf3 Nc6 Bb5", got)
}

func TestReportWithoutLines(t *testing.T) {
	got := NewFormatter(nil).Report(startFEN, reviewdto.NeutralAnalysis())
	assert.Equal(t, "Initial position evaluation: +0.00 pawns", got)
}

func TestPrincipalSANStopsAtIllegalMove(t *testing.T) {
	assert.Equal(t, []string{"d4"}, PrincipalSAN(startFEN, []string{"d2d4", "d2d4"}, 5))
	assert.Nil(t, PrincipalSAN(startFEN, nil, 5))
	assert.Nil(t, PrincipalSAN("not a fen", []string{"e2e4"}, 5))
}

func TestCaptions(t *testing.T) {
	assert.Equal(t, "Start position", PlyCaption(0, ""))
	assert.Equal(t, "Ply 3: Nf3", PlyCaption(3, "Nf3"))
	assert.Equal(t, "White to move", Turn(startFEN))
	assert.Equal(t, "Black to move", Turn("8/8/8/8/8/8/8/k6K b - - 0 1"))
}

func TestToDTOProfileCopiesPointers(t *testing.T) {
	title, rating := "GM", 3200
	src := domain.Profile{Username: "Hikaru", Title: &title, Rating: &rating}

	got := ToDTOProfile(src)

	require.NotNil(t, got.Title)
	require.NotNil(t, got.Rating)
	assert.Equal(t, "GM", *got.Title)
	assert.Equal(t, 3200, *got.Rating)
	title = "IM"
	assert.Equal(t, "GM", *got.Title)

	empty := ToDTOProfile(domain.Profile{Username: "x"})
	assert.Nil(t, empty.Title)
	assert.Nil(t, empty.Rating)
}

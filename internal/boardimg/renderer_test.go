package boardimg

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	chesslib "github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestRenderPNGStartPosition(t *testing.T) {
	game := chesslib.NewGame()
	r := New()

	data, err := r.RenderPNG(context.Background(), game.Position().Board(), Options{Caption: "Start", Turn: "White to move"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 60*8+48, img.Bounds().Dx())
	assert.Equal(t, 60*8+88, img.Bounds().Dy())
}

func TestRenderPNGHighlightChangesSquare(t *testing.T) {
	game := chesslib.NewGame()
	require.NoError(t, game.PushNotationMove("e2e4", chesslib.UCINotation{}, nil))
	board := game.Position().Board()
	r := New()

	plain, err := r.RenderPNG(context.Background(), board, Options{})
	require.NoError(t, err)
	marked, err := r.RenderPNG(context.Background(), board, Options{Highlight: &Highlight{From: chesslib.E2, To: chesslib.E4}})
	require.NoError(t, err)

	a, err := png.Decode(bytes.NewReader(plain))
	require.NoError(t, err)
	b, err := png.Decode(bytes.NewReader(marked))
	require.NoError(t, err)
	// corner of e2, no piece there after the move
	x, y := 24+4*60+2, 64+6*60+2
	assert.NotEqual(t, a.At(x, y), b.At(x, y))
}

func TestRenderPNGRejectsNilBoard(t *testing.T) {
	_, err := New().RenderPNG(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestRenderPNGHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RenderPNG(ctx, chesslib.NewGame().Position().Board(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEveryPieceHasAShape(t *testing.T) {
	for _, p := range []chesslib.Piece{
		chesslib.WhiteKing, chesslib.WhiteQueen, chesslib.WhiteRook, chesslib.WhiteBishop, chesslib.WhiteKnight, chesslib.WhitePawn,
		chesslib.BlackKing, chesslib.BlackQueen, chesslib.BlackRook, chesslib.BlackBishop, chesslib.BlackKnight, chesslib.BlackPawn,
	} {
		img, err := renderPieceImage(p, 32)
		require.NoError(t, err, p.String())
		assert.Equal(t, 32, img.Bounds().Dx())
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	long := "a very long caption that will never fit in the panel"
	d := 7 * 10
	got := truncateWithEllipsis(faceForTest(), long, d)
	assert.LessOrEqual(t, len(got), 10)
	assert.Contains(t, got, "...")
	assert.Equal(t, "short", truncateWithEllipsis(faceForTest(), "short", d))
}

func faceForTest() font.Face { return basicfont.Face7x13 }

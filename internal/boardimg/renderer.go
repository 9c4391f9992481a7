package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	chesslib "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Highlight struct {
	From chesslib.Square
	To   chesslib.Square
}

type Options struct {
	Highlight *Highlight
	// Caption and Turn fill the two panels above the board.
	Caption string
	Turn    string
}

type Renderer struct {
	squareSize int
}

func New() *Renderer { return &Renderer{squareSize: 60} }

var (
	ranks = []chesslib.Rank{chesslib.Rank8, chesslib.Rank7, chesslib.Rank6, chesslib.Rank5, chesslib.Rank4, chesslib.Rank3, chesslib.Rank2, chesslib.Rank1}
	files = []chesslib.File{chesslib.FileA, chesslib.FileB, chesslib.FileC, chesslib.FileD, chesslib.FileE, chesslib.FileF, chesslib.FileG, chesslib.FileH}
)

var (
	lightSquare         = color.RGBA{238, 238, 210, 255}
	darkSquare          = color.RGBA{118, 150, 86, 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	backgroundColor     = color.RGBA{38, 36, 33, 255}
	panelColor          = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	panelTextColor      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 200, G: 200, B: 190, A: 255}
)

// RenderPNG draws board from White's side with optional last-move highlight and captions.
func (r *Renderer) RenderPNG(ctx context.Context, board *chesslib.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	const (
		sideMargin   = 24
		topMargin    = 64
		bottomMargin = 24
		panelHeight  = 28
		panelGap     = 10
	)
	squareSize := r.squareSize
	boardSize := squareSize * 8
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	panelTop := boardRect.Min.Y - panelGap - panelHeight
	half := (boardRect.Dx() - panelGap) / 2
	captionRect := image.Rect(boardRect.Min.X, panelTop, boardRect.Min.X+half, panelTop+panelHeight)
	turnRect := image.Rect(boardRect.Max.X-half, panelTop, boardRect.Max.X, panelTop+panelHeight)
	drawPanel(img, drawer, captionRect, opts.Caption)
	drawPanel(img, drawer, turnRect, opts.Turn)

	drawSquares(img, squareSize, origin)
	if opts.Highlight != nil {
		drawSquareOverlay(img, opts.Highlight.From, squareSize, origin, moveHighlightFill)
		drawSquareOverlay(img, opts.Highlight.To, squareSize, origin, moveHighlightFill)
	}
	if err := drawPieces(img, board, squareSize, origin); err != nil {
		return nil, err
	}
	drawCoordinates(drawer, squareSize, origin, sideMargin)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawPanel(img *image.RGBA, drawer *font.Drawer, rect image.Rectangle, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	imagedraw.Draw(img, rect, image.NewUniform(panelColor), image.Point{}, imagedraw.Over)
	text = truncateWithEllipsis(drawer.Face, text, rect.Dx()-16)
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(panelTextColor)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row, rank := range ranks {
		for col, file := range files {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			clr := squareColor(chesslib.NewSquare(file, rank))
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *chesslib.Board, squareSize int, origin image.Point) error {
	boardMap := board.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			piece := boardMap[chesslib.NewSquare(file, rank)]
			if piece == chesslib.NoPiece {
				continue
			}
			pieceImg, err := renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), pieceImg, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq chesslib.Square, squareSize int, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCoordinates(drawer *font.Drawer, squareSize int, origin image.Point, margin int) {
	drawer.Src = image.NewUniform(coordinateTextColor)
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + len(ranks)*squareSize

	for row, rank := range ranks {
		rankCenter := origin.Y + row*squareSize + squareSize/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, rankCenter+ascent/2)
	}
	for col, file := range files {
		fileCenter := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), fileCenter, boardEndY+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	if maxWidth <= 0 || face == nil {
		return text
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func squareRect(sq chesslib.Square, squareSize int, origin image.Point) image.Rectangle {
	row := 7 - int(sq.Rank())
	col := int(sq.File())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq chesslib.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

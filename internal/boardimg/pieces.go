package boardimg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece silhouettes on a 45x45 canvas. STYLE is replaced with the side's fill and stroke.
var pieceShapes = map[chesslib.PieceType]string{
	chesslib.Pawn: `<circle cx="22.5" cy="14" r="6" STYLE/>
<path d="M16 36 L19 21 H26 L29 36 Z" STYLE/>`,
	chesslib.Rook: `<path d="M12 9 H16 V12 H20 V9 H25 V12 H29 V9 H33 V17 L30 19 V31 L33 36 H12 L15 31 V19 L12 17 Z" STYLE/>`,
	chesslib.Knight: `<path d="M14 36 L16 26 L11 22 L13 16 L20 9 L22 5 L24 9 C31 11 34 20 31 36 Z" STYLE/>
<circle cx="19" cy="14" r="1.5" fill="#7a7a7a"/>`,
	chesslib.Bishop: `<circle cx="22.5" cy="7" r="2.5" STYLE/>
<ellipse cx="22.5" cy="19" rx="7" ry="10" STYLE/>
<path d="M16 36 L19 27 H26 L29 36 Z" STYLE/>`,
	chesslib.Queen: `<path d="M9 13 L15 29 L16 10 L22.5 27 L29 10 L30 29 L36 13 L32 36 H13 Z" STYLE/>
<circle cx="9" cy="12" r="2.5" STYLE/>
<circle cx="16" cy="9" r="2.5" STYLE/>
<circle cx="22.5" cy="8" r="2.5" STYLE/>
<circle cx="29" cy="9" r="2.5" STYLE/>
<circle cx="36" cy="12" r="2.5" STYLE/>`,
	chesslib.King: `<path d="M21 3 H24 V7 H28 V10 H24 V14 H21 V10 H17 V7 H21 Z" STYLE/>
<path d="M11 22 C11 13 34 13 34 22 L30 36 H15 Z" STYLE/>`,
}

const pieceBase = `<rect x="10" y="35" width="25" height="5" rx="1.5" STYLE/>`

func pieceStyle(c chesslib.Color) string {
	if c == chesslib.White {
		return `fill="#f7f4ea" stroke="#1c1c1c" stroke-width="1.5"`
	}
	return `fill="#262421" stroke="#e8e4d8" stroke-width="1.2"`
}

// pieceSVG builds the SVG document for one piece.
func pieceSVG(piece chesslib.Piece) (string, error) {
	shape, ok := pieceShapes[piece.Type()]
	if !ok {
		return "", fmt.Errorf("no shape for piece %v", piece)
	}
	body := strings.ReplaceAll(shape+"\n"+pieceBase, "STYLE", pieceStyle(piece.Color()))
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + "\n" + body + "\n</svg>", nil
}

type pieceCacheKey struct {
	piece chesslib.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece chesslib.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	doc, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

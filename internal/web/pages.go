package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/park285/chesscom-review/pkg/reviewdto"
)

//go:embed templates/*.html
var templateFS embed.FS

type homeView struct{}

type gamesView struct {
	Username string
	Profile  *reviewdto.Profile
	Games    []reviewdto.PresentationGame
	Error    string
}

type pages struct {
	set map[string]*template.Template
}

func mustParsePages() *pages {
	p := &pages{set: make(map[string]*template.Template)}
	for _, name := range []string{"home.html", "games.html"} {
		p.set[name] = template.Must(template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name))
	}
	return p
}

// render executes into a buffer first so a template error never leaves a half-written page.
func (p *pages) render(w http.ResponseWriter, logger *zap.Logger, name string, data any) {
	t, ok := p.set[name]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

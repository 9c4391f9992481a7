// Package web serves the HTML pages, the JSON API and the analysis websocket.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	corslib "github.com/rs/cors"
	"go.uber.org/zap"

	chesslib "github.com/corentings/chess/v2"

	"github.com/park285/chesscom-review/internal/boardimg"
	"github.com/park285/chesscom-review/internal/domain"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

// GameSource is the part of the Chess.com client the handlers use.
type GameSource interface {
	Games(ctx context.Context, username string, limit int) ([]domain.RawGame, error)
	Profile(ctx context.Context, username string) domain.Profile
}

// EngineReporter describes the engine behind the analysis.
type EngineReporter interface {
	Info() reviewdto.EngineInfo
}

// StreamServer upgrades a request into an analysis session for pgnID.
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, pgnID string)
}

// BoardRenderer draws a position as PNG.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *chesslib.Board, opts boardimg.Options) ([]byte, error)
}

type Config struct {
	Games    GameSource
	Engine   EngineReporter
	Stream   StreamServer
	Board    BoardRenderer
	Messages *msgcat.Catalog
	Metrics  http.Handler
	Observer HTTPObserver
	Logger   *zap.Logger

	GamesLimit   int
	TestUsername string

	CORSAllowOrigins  []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	cfg      Config
	msgs     *msgcat.Catalog
	validate *validator.Validate
	pages    *pages
	logger   *zap.Logger
}

func NewServer(cfg Config) *Server {
	if cfg.Messages == nil {
		cfg.Messages = msgcat.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.GamesLimit <= 0 {
		cfg.GamesLimit = 100
	}
	if cfg.TestUsername == "" {
		cfg.TestUsername = "hikaru"
	}
	return &Server{
		cfg:      cfg,
		msgs:     cfg.Messages,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    mustParsePages(),
		logger:   cfg.Logger,
	}
}

// Router builds the chi router with all middleware and routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger, s.cfg.Observer))
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := corslib.New(corslib.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitEnabled && s.cfg.RateLimitRequests > 0 {
			window := s.cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(rateLimit(s.cfg.RateLimitRequests, window,
				s.msgs.RenderOr("chesscom.rate_limited", nil, "Rate limit exceeded. Please try again in a few minutes.")))
		}

		r.Get("/", s.Home)
		r.Get("/games", s.GamesPage)

		r.Route("/api", func(r chi.Router) {
			r.Post("/fetch-games", s.FetchGames)
			r.Get("/test", s.Probe)
			r.Get("/engine", s.EngineInfo)
			r.Get("/profile", s.Profile)
			r.Get("/board/{pgnID}.png", s.BoardImage)
		})

		r.Get("/ws/analysis/{pgnID}", s.Analysis)
		r.Get("/ws/analysis/{pgnID}/", s.Analysis)
	})

	return r
}

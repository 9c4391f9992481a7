package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/park285/chesscom-review/internal/adapter/reviewpresenter"
	"github.com/park285/chesscom-review/internal/boardimg"
	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/internal/games"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

const (
	maxUsernameLen  = 30
	maxRequestBytes = 4 << 10
)

// usernameInput is the validated form of a submitted username.
type usernameInput struct {
	Username string `validate:"required,max=30"`
}

// checkUsername normalizes raw and returns a user-facing message when it is invalid.
func (s *Server) checkUsername(raw string) (string, string) {
	username := strings.ToLower(strings.TrimSpace(raw))
	err := s.validate.Struct(usernameInput{Username: username})
	if err == nil {
		return username, ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return username, s.msgs.RenderOr("api.username_too_long", map[string]any{"Max": maxUsernameLen},
			"Username must be at most 30 characters")
	}
	return username, s.msgs.RenderOr("api.username_required", nil, "Username is required")
}

func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, s.logger, "home.html", homeView{})
}

// GamesPage renders the profile and game list. Upstream failures are shown on the page itself.
func (s *Server) GamesPage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("username")
	view := gamesView{Games: []reviewdto.PresentationGame{}}
	if strings.TrimSpace(raw) == "" {
		s.pages.render(w, s.logger, "games.html", view)
		return
	}

	username, msg := s.checkUsername(raw)
	view.Username = username
	if msg != "" {
		view.Error = msg
		s.pages.render(w, s.logger, "games.html", view)
		return
	}

	profile := reviewpresenter.ToDTOProfile(s.cfg.Games.Profile(r.Context(), username))
	view.Profile = &profile

	rawGames, err := s.cfg.Games.Games(r.Context(), username, s.cfg.GamesLimit)
	if err != nil {
		s.logger.Warn("games page fetch failed", zap.String("username", username), zap.Error(err))
		view.Error = s.userMessage(err)
	} else {
		view.Games = games.TransformAll(rawGames, username)
	}
	s.pages.render(w, s.logger, "games.html", view)
}

func (s *Server) FetchGames(w http.ResponseWriter, r *http.Request) {
	var req reviewdto.FetchGamesRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.msgs.RenderOr("api.invalid_json", nil, "Invalid JSON"))
		return
	}
	username, msg := s.checkUsername(req.Username)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	rawGames, err := s.cfg.Games.Games(r.Context(), username, s.cfg.GamesLimit)
	if err != nil {
		s.logger.Warn("fetch games failed", zap.String("username", username), zap.Error(err))
		writeError(w, statusFor(err), s.userMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, reviewdto.FetchGamesResponse{Games: games.TransformAll(rawGames, username)})
}

// Probe exercises the Chess.com client against a known public account.
// Failures are reported in the body with status 200.
func (s *Server) Probe(w http.ResponseWriter, r *http.Request) {
	username := s.cfg.TestUsername
	rawGames, err := s.cfg.Games.Games(r.Context(), username, 5)
	if err != nil {
		s.logger.Warn("probe failed", zap.String("username", username), zap.Error(err))
		writeJSON(w, http.StatusOK, reviewdto.ProbeResponse{Status: "error", Message: err.Error()})
		return
	}
	list := games.TransformAll(rawGames, username)
	resp := reviewdto.ProbeResponse{
		Status: "success",
		Message: s.msgs.RenderOr("api.probe_ok", map[string]any{"Count": len(list), "Username": username},
			"API working! Found "+strconv.Itoa(len(list))+" games for "+username),
	}
	if len(list) > 0 {
		resp.SampleGame = &list[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) EngineInfo(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Engine == nil {
		writeJSON(w, http.StatusOK, reviewdto.EngineInfo{
			Status:  "error",
			Message: s.msgs.RenderOr("engine.unavailable", nil, "Engine not available"),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Engine.Info())
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	username, msg := s.checkUsername(r.URL.Query().Get("username"))
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, reviewpresenter.ToDTOProfile(s.cfg.Games.Profile(r.Context(), username)))
}

// BoardImage renders the position after ply N of the game addressed by its identifier.
func (s *Server) BoardImage(w http.ResponseWriter, r *http.Request) {
	invalidGame := s.msgs.RenderOr("api.invalid_game_id", nil, "Invalid game identifier")
	moveText, err := games.DecodePGNID(chi.URLParam(r, "pgnID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidGame)
		return
	}
	replay, err := chess.ParseMoveText(moveText)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidGame)
		return
	}

	var step chess.Step
	if raw := r.URL.Query().Get("ply"); raw != "" {
		ply, convErr := strconv.Atoi(raw)
		if convErr == nil {
			step, err = replay.StepAt(ply)
		}
		if convErr != nil || err != nil {
			writeError(w, http.StatusBadRequest, s.msgs.RenderOr("api.invalid_ply", map[string]any{"Ply": raw}, "Invalid ply: "+raw))
			return
		}
	} else if step, err = replay.Final(); err != nil {
		writeError(w, http.StatusBadRequest, invalidGame)
		return
	}

	opts := boardimg.Options{
		Caption: reviewpresenter.PlyCaption(step.Ply, step.SAN),
		Turn:    reviewpresenter.Turn(step.FEN),
	}
	if mv := step.LastMove(); mv != nil {
		opts.Highlight = &boardimg.Highlight{From: mv.S1(), To: mv.S2()}
	}
	png, err := s.cfg.Board.RenderPNG(r.Context(), step.Game.Position().Board(), opts)
	if err != nil {
		s.logger.Error("board render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, s.msgs.RenderOr("api.internal", nil, "Internal server error"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) Analysis(w http.ResponseWriter, r *http.Request) {
	s.cfg.Stream.Serve(w, r, chi.URLParam(r, "pgnID"))
}

// userMessage picks the text shown for err. Unexpected faults get a generic message.
func (s *Server) userMessage(err error) string {
	var f *reviewdto.Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return s.msgs.RenderOr("api.internal", nil, "Internal server error")
}

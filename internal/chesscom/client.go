package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/park285/chesscom-review/internal/domain"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://api.chess.com/pub"
	DefaultUserAgent  = "chess-analysis-app/0.3"
	DefaultGamesLimit = 100
	maxBodyExcerpt    = 512
)

// UpstreamObserver receives one call per remote request.
type UpstreamObserver interface {
	ObserveUpstream(endpoint, outcome string, d time.Duration)
}

// Archive is one monthly game archive of a player.
type Archive struct {
	Year  int
	Month int
}

type Client struct {
	baseURL   string
	http      *fasthttp.Client
	timeout   time.Duration
	userAgent string
	msgs      *msgcat.Catalog
	cache     ArchiveCache
	breaker   *gobreaker.CircuitBreaker
	observer  UpstreamObserver
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

func WithMessages(m *msgcat.Catalog) Option {
	return func(c *Client) { c.msgs = m }
}

// WithCache stores finished months so repeat lookups skip the network.
func WithCache(cache ArchiveCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithObserver(o UpstreamObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout:   10 * time.Second,
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.msgs == nil {
		c.msgs = msgcat.Default()
	}
	if c.breaker == nil {
		c.breaker = NewBreaker(DefaultBreakerConfig("chesscom"), c.logger)
	}
	return c
}

// NormalizeUsername trims and lowercases; Chess.com paths are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type profilePayload struct {
	Username string `json:"username"`
	Title    string `json:"title"`
}

type statsPayload struct {
	ChessBlitz *struct {
		Last *struct {
			Rating int `json:"rating"`
		} `json:"last"`
	} `json:"chess_blitz"`
}

// Profile returns the player's title and blitz rating. It never fails:
// any error yields a record with only the username set.
func (c *Client) Profile(ctx context.Context, username string) domain.Profile {
	fallback := domain.Profile{Username: strings.TrimSpace(username)}
	user := NormalizeUsername(username)
	if user == "" {
		return fallback
	}

	var prof profilePayload
	if err := c.getJSON(ctx, "profile", c.playerPath(user), user, &prof); err != nil {
		c.logger.Warn("profile fetch failed", zap.String("username", user), zap.Error(err))
		return fallback
	}
	var stats statsPayload
	if err := c.getJSON(ctx, "stats", c.playerPath(user)+"/stats", user, &stats); err != nil {
		c.logger.Warn("stats fetch failed", zap.String("username", user), zap.Error(err))
		return fallback
	}

	out := domain.Profile{Username: prof.Username}
	if out.Username == "" {
		out.Username = fallback.Username
	}
	if t := strings.TrimSpace(prof.Title); t != "" {
		out.Title = &t
	}
	if stats.ChessBlitz != nil && stats.ChessBlitz.Last != nil {
		r := stats.ChessBlitz.Last.Rating
		out.Rating = &r
	}
	return out
}

// Games returns up to limit games, newest first. Whole monthly archives are
// read newest to oldest until enough games are held.
func (c *Client) Games(ctx context.Context, username string, limit int) ([]domain.RawGame, error) {
	user := NormalizeUsername(username)
	if user == "" {
		return nil, reviewdto.NewFailure(reviewdto.KindUserInput, c.msgs.RenderOr("api.username_required", nil, "Username is required"))
	}
	if limit <= 0 {
		limit = DefaultGamesLimit
	}

	archives, err := c.Archives(ctx, user)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawGame, 0, limit)
	for i := len(archives) - 1; i >= 0 && len(out) < limit; i-- {
		month, err := c.MonthGames(ctx, user, archives[i])
		if err != nil {
			return nil, err
		}
		out = append(out, month...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTime > out[j].EndTime })
	if len(out) > limit {
		out = out[:limit]
	}
	c.logger.Debug("games fetched",
		zap.String("username", user),
		zap.Int("archives", len(archives)),
		zap.Int("games", len(out)))
	return out, nil
}

type archivesPayload struct {
	Archives []string `json:"archives"`
}

// Archives lists the player's monthly archives in the order Chess.com returns them (oldest first).
func (c *Client) Archives(ctx context.Context, username string) ([]Archive, error) {
	user := NormalizeUsername(username)
	var payload archivesPayload
	if err := c.getJSON(ctx, "archives", c.playerPath(user)+"/games/archives", user, &payload); err != nil {
		return nil, err
	}

	out := make([]Archive, 0, len(payload.Archives))
	for _, raw := range payload.Archives {
		a, err := parseArchiveURL(raw)
		if err != nil {
			c.logger.Warn("skipping malformed archive url", zap.String("url", raw), zap.Error(err))
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type monthPayload struct {
	Games []domain.RawGame `json:"games"`
}

// MonthGames fetches one archive month, consulting the cache for finished months.
func (c *Client) MonthGames(ctx context.Context, username string, a Archive) ([]domain.RawGame, error) {
	user := NormalizeUsername(username)
	cacheable := c.cache != nil && c.isPastMonth(a)
	if cacheable {
		games, ok, err := c.cache.Get(ctx, user, a.Year, a.Month)
		switch {
		case err != nil:
			c.logger.Warn("archive cache read failed", zap.String("username", user), zap.Error(err))
		case ok:
			return games, nil
		}
	}

	var payload monthPayload
	path := fmt.Sprintf("%s/games/%04d/%02d", c.playerPath(user), a.Year, a.Month)
	if err := c.getJSON(ctx, "month", path, user, &payload); err != nil {
		return nil, err
	}
	if payload.Games == nil {
		payload.Games = []domain.RawGame{}
	}

	if cacheable {
		if err := c.cache.Put(ctx, user, a.Year, a.Month, payload.Games); err != nil {
			c.logger.Warn("archive cache write failed", zap.String("username", user), zap.Error(err))
		}
	}
	return payload.Games, nil
}

func (c *Client) isPastMonth(a Archive) bool {
	now := c.now().UTC()
	if a.Year != now.Year() {
		return a.Year < now.Year()
	}
	return a.Month < int(now.Month())
}

func (c *Client) playerPath(user string) string {
	return "/player/" + url.PathEscape(user)
}

// parseArchiveURL reads year and month from the last two path segments.
func parseArchiveURL(raw string) (Archive, error) {
	parts := strings.Split(strings.TrimRight(raw, "/"), "/")
	if len(parts) < 2 {
		return Archive{}, fmt.Errorf("archive url %q: too few segments", raw)
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return Archive{}, fmt.Errorf("archive url %q: year: %w", raw, err)
	}
	month, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || month < 1 || month > 12 {
		return Archive{}, fmt.Errorf("archive url %q: bad month", raw)
	}
	return Archive{Year: year, Month: month}, nil
}

// getJSON performs one GET through the breaker and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path, username string, out any) error {
	if err := ctx.Err(); err != nil {
		return c.fetchFailure(err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, path, username, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &reviewdto.Failure{
			Kind:     reviewdto.KindUpstreamGeneric,
			Message:  c.msgs.RenderOr("chesscom.unavailable", nil, "Chess.com is temporarily unavailable. Please try again later."),
			Username: username,
			Cause:    err,
		}
	}

	if c.observer != nil {
		outcome := "ok"
		if err != nil {
			outcome = string(reviewdto.KindOf(err))
		}
		c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
	}
	return err
}

func (c *Client) do(ctx context.Context, path, username string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return c.fetchFailure(fmt.Errorf("request failed: %w", err))
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return c.statusFailure(status, username, resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return c.fetchFailure(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

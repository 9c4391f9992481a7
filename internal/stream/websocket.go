package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeTimeout     = 10 * time.Second
	defaultPingEvery = 30 * time.Second
	requestBacklog   = 8
)

// ConnObserver follows the number of open connections.
type ConnObserver interface {
	SessionOpened()
	SessionClosed()
	RunObserver
}

type HandlerConfig struct {
	Analyser       Analyser
	Messages       *msgcat.Catalog
	Hub            *Hub
	Pacing         time.Duration
	PingInterval   time.Duration
	OriginPatterns []string
	Observer       ConnObserver
	Logger         *zap.Logger
}

// Handler upgrades HTTP requests to analysis websocket sessions.
type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}
	if cfg.Messages == nil {
		cfg.Messages = msgcat.Default()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{cfg: cfg}
}

func (h *Handler) Hub() *Hub { return h.cfg.Hub }

// Serve runs one connection until the client leaves or the request context ends.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, pgnID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.cfg.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.cfg.Logger.Warn("websocket accept failed", zap.String("pgn_id", pgnID), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	connID := uuid.NewString()
	group := GroupName(pgnID)
	h.cfg.Hub.Join(group, connID)
	defer h.cfg.Hub.Leave(group, connID)
	if h.cfg.Observer != nil {
		h.cfg.Observer.SessionOpened()
		defer h.cfg.Observer.SessionClosed()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var runs RunObserver
	if h.cfg.Observer != nil {
		runs = h.cfg.Observer
	}
	session := NewSession(Config{
		ID:       connID,
		PGNID:    pgnID,
		Sink:     &wsSink{conn: conn},
		Analyser: h.cfg.Analyser,
		Messages: h.cfg.Messages,
		Pacing:   h.cfg.Pacing,
		Observer: runs,
		Logger:   h.cfg.Logger,
	})
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return
	}

	frames := make(chan frame, requestBacklog)
	go h.readLoop(ctx, cancel, conn, frames)
	go h.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			var err error
			if f.bad {
				err = session.Reject(ctx)
			} else {
				err = session.Handle(ctx, f.req)
			}
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					h.cfg.Logger.Debug("stream write failed", zap.String("conn", connID), zap.Error(err))
				}
				return
			}
		}
	}
}

type frame struct {
	req reviewdto.StreamRequest
	bad bool
}

// readLoop feeds decoded requests and cancels the session when the client goes away.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- frame) {
	defer close(out)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.cfg.Logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f.req); err != nil {
			f.bad = true
		}
		select {
		case out <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(h.cfg.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(ctx context.Context, msg reviewdto.StreamMessage) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, s.conn, msg)
}

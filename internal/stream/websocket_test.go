package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/pkg/reviewdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Ply     int             `json:"ply"`
	Eval    reviewdto.Score `json:"eval"`
	Count   int             `json:"count"`
}

func startWS(t *testing.T) (*Handler, string) {
	t.Helper()
	h := NewHandler(HandlerConfig{Analyser: chess.NewPipeline(flatEvaluator{}, nil), Pacing: time.Millisecond})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/analysis/"), "/")
		h.Serve(w, r, id)
	}))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analysis/game1/"
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readMsg(t *testing.T, ctx context.Context, conn *websocket.Conn) wireMessage {
	t.Helper()
	var m wireMessage
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	return m
}

func TestWebsocketFullAnalysis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, url := startWS(t)
	conn := dial(t, ctx, url)

	first := readMsg(t, ctx, conn)
	assert.Equal(t, "status", first.Type)

	require.NoError(t, wsjson.Write(ctx, conn, reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. e4 e5"}))
	for ply := 0; ply < 3; ply++ {
		m := readMsg(t, ctx, conn)
		require.Equal(t, "analysis", m.Type)
		assert.Equal(t, ply, m.Ply)
		assert.Equal(t, 15, m.Eval.Value)
	}
	done := readMsg(t, ctx, conn)
	assert.Equal(t, "complete", done.Type)
	assert.Equal(t, 3, done.Count)
}

func TestWebsocketErrorsKeepConnectionOpen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, url := startWS(t)
	conn := dial(t, ctx, url)
	_ = readMsg(t, ctx, conn)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "bogus"}))
	assert.Equal(t, "Unknown message type: bogus", readMsg(t, ctx, conn).Message)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	assert.Equal(t, "Invalid JSON", readMsg(t, ctx, conn).Message)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "start_analysis"}))
	assert.Equal(t, "No PGN provided", readMsg(t, ctx, conn).Message)

	require.NoError(t, wsjson.Write(ctx, conn, reviewdto.StreamRequest{Type: reviewdto.TypeStartAnalysis, PGN: "1. d4"}))
	var last wireMessage
	for last.Type != "complete" {
		last = readMsg(t, ctx, conn)
	}
	assert.Equal(t, 2, last.Count)
}

func TestWebsocketDisconnectLeavesGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h, url := startWS(t)
	conn := dial(t, ctx, url)
	_ = readMsg(t, ctx, conn)

	assert.Equal(t, 1, h.Hub().Members(GroupName("game1")))
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool { return h.Hub().Members(GroupName("game1")) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWireShapeOfAnalysis(t *testing.T) {
	raw, err := json.Marshal(reviewdto.NewAnalysis(0, reviewdto.NeutralAnalysis()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"analysis","ply":0,"eval":{"type":"cp","value":0},"lines":[]}`, string(raw))
}

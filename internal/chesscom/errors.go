package chesscom

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/park285/chesscom-review/pkg/reviewdto"
)

// statusFailure maps a non-2xx reply to a typed failure. Non-standard
// statuses fall back to matching the body text.
func (c *Client) statusFailure(status int, username string, body []byte) *reviewdto.Failure {
	excerpt := truncate(string(body), maxBodyExcerpt)
	kind := classify(status, excerpt)
	data := map[string]any{"Username": username}

	var msg string
	switch kind {
	case reviewdto.KindUpstreamNotFound:
		msg = c.msgs.RenderOr("chesscom.not_found", data, fmt.Sprintf("Username %q not found on Chess.com", username))
	case reviewdto.KindUpstreamForbidden:
		msg = c.msgs.RenderOr("chesscom.forbidden", data, fmt.Sprintf("Username %q not found or account is private.", username))
	case reviewdto.KindUpstreamRateLimited:
		msg = c.msgs.RenderOr("chesscom.rate_limited", nil, "Rate limit exceeded. Please try again in a few minutes.")
	default:
		detail := fmt.Sprintf("chess.com status=%d body=%s", status, excerpt)
		msg = c.msgs.RenderOr("chesscom.generic", map[string]any{"Error": detail}, "Error fetching games: "+detail)
	}

	return &reviewdto.Failure{
		Kind:     kind,
		Message:  msg,
		Username: username,
		Status:   status,
		Cause:    fmt.Errorf("chess.com status %d", status),
	}
}

// fetchFailure wraps transport and decode errors as generic upstream failures.
func (c *Client) fetchFailure(err error) *reviewdto.Failure {
	return &reviewdto.Failure{
		Kind:    reviewdto.KindUpstreamGeneric,
		Message: c.msgs.RenderOr("chesscom.generic", map[string]any{"Error": err.Error()}, "Error fetching games: "+err.Error()),
		Cause:   err,
	}
}

func classify(status int, body string) reviewdto.Kind {
	switch status {
	case http.StatusNotFound:
		return reviewdto.KindUpstreamNotFound
	case http.StatusForbidden:
		return reviewdto.KindUpstreamForbidden
	case http.StatusTooManyRequests:
		return reviewdto.KindUpstreamRateLimited
	}

	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "not found"):
		return reviewdto.KindUpstreamNotFound
	case strings.Contains(lower, "forbidden"):
		return reviewdto.KindUpstreamForbidden
	case strings.Contains(lower, "rate limit"):
		return reviewdto.KindUpstreamRateLimited
	default:
		return reviewdto.KindUpstreamGeneric
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

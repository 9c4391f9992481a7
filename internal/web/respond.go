package web

import (
	"encoding/json"
	"net/http"

	"github.com/park285/chesscom-review/pkg/reviewdto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, reviewdto.ErrorResponse{Error: message})
}

// statusFor maps a failure kind to the HTTP status returned to API clients.
// Every typed user or upstream failure is a 400; untyped faults are a 500.
func statusFor(err error) int {
	switch reviewdto.KindOf(err) {
	case reviewdto.KindUserInput, reviewdto.KindUpstreamNotFound, reviewdto.KindUpstreamForbidden,
		reviewdto.KindUpstreamRateLimited, reviewdto.KindUpstreamGeneric:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

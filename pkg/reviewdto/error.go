package reviewdto

import "errors"

// Kind classifies a Failure. The set is closed; boundaries switch on it.
type Kind string

const (
	KindUserInput           Kind = "user_input"
	KindUpstreamNotFound    Kind = "upstream_not_found"
	KindUpstreamForbidden   Kind = "upstream_forbidden"
	KindUpstreamRateLimited Kind = "upstream_rate_limited"
	KindUpstreamGeneric     Kind = "upstream_generic"
	KindEngineUnavailable   Kind = "engine_unavailable"
	KindParseFailure        Kind = "parse_failure"
)

// Failure is the typed error returned across package boundaries.
type Failure struct {
	Kind     Kind
	Message  string
	Username string
	Status   int
	Cause    error
}

var (
	ErrUserInput           = &Failure{Kind: KindUserInput}
	ErrUpstreamNotFound    = &Failure{Kind: KindUpstreamNotFound}
	ErrUpstreamForbidden   = &Failure{Kind: KindUpstreamForbidden}
	ErrUpstreamRateLimited = &Failure{Kind: KindUpstreamRateLimited}
	ErrUpstreamGeneric     = &Failure{Kind: KindUpstreamGeneric}
	ErrEngineUnavailable   = &Failure{Kind: KindEngineUnavailable}
	ErrParseFailure        = &Failure{Kind: KindParseFailure}
)

func NewFailure(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func (e *Failure) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Cause.Error()
	}
	return string(e.Kind)
}

func (e *Failure) Unwrap() error { return e.Cause }

// Is matches any Failure of the same kind, so the package-level sentinels work with errors.Is.
func (e *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the failure kind carried by err, or "" when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) && f != nil {
		return f.Kind
	}
	return ""
}

// IsUpstream reports whether err came from the remote game-data API.
func IsUpstream(err error) bool {
	switch KindOf(err) {
	case KindUpstreamNotFound, KindUpstreamForbidden, KindUpstreamRateLimited, KindUpstreamGeneric:
		return true
	default:
		return false
	}
}

package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"strings"
)

// Kind classifies an error so callers can branch on what failed without
// matching on messages.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	RunInProgress

	// extraction
	UpstreamUnavailable
	EmptyFeed
	MalformedPayload

	// transformation
	EncodingSchemaMismatch
	ArtifactLoadError

	// scoring
	ScoringEndpointUnavailable
	InvalidScoreResponse

	// persistence
	StoreUnavailable

	// alerting
	NotificationDeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case RunInProgress:
		return "run_in_progress"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case EmptyFeed:
		return "empty_feed"
	case MalformedPayload:
		return "malformed_payload"
	case EncodingSchemaMismatch:
		return "encoding_schema_mismatch"
	case ArtifactLoadError:
		return "artifact_load_error"
	case ScoringEndpointUnavailable:
		return "scoring_endpoint_unavailable"
	case InvalidScoreResponse:
		return "invalid_score_response"
	case StoreUnavailable:
		return "store_unavailable"
	case NotificationDeliveryFailed:
		return "notification_delivery_failed"
	}
	return "other"
}

// Error is a classified error carrying the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// E builds a classified error. err may be nil.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or Other when there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

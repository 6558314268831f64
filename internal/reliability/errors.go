package reliability

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy from spec.md §7. The Dispatcher reports it as
// the code label of its provider-error metrics (see orchestrator's
// errorCode); it does not branch on it.
type Kind string

const (
	KindMalformedFrame     Kind = "MalformedFrame"
	KindAuthInvalid        Kind = "AuthInvalid"
	KindProviderUnavailable Kind = "ProviderUnavailable"
	KindTimeout            Kind = "Timeout"
	KindFeedbackParseError Kind = "FeedbackParseError"
	KindPersistFailure     Kind = "PersistFailure"
)

// Error wraps an underlying cause with a classification used to decide
// propagation policy (spec.md §7: "errors inside a task are converted to
// events on the Session's channel; the owning task decides whether to
// surface them").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds a classified Error. Provider clients pass KindTimeout for
// deadline failures, so a timeout keeps its own Kind in logs and metrics;
// IsProviderFailure treats it the same as ProviderUnavailable per spec.md §7
// ("Timeout — treated as ProviderUnavailable").
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsProviderFailure reports whether err should be treated as
// ProviderUnavailable for the purposes of the turn pipeline's fallback
// behavior (emit a stand-in agent.text and skip audio).
func IsProviderFailure(err error) bool {
	var classified *Error
	if !errors.As(err, &classified) {
		return false
	}
	return classified.Kind == KindProviderUnavailable || classified.Kind == KindTimeout
}

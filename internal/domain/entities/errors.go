package entities

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates engine error categories so callers can react
// differently to a misconfiguration, an offline model server, or a state
// problem that re-ingestion or relaxed settings would fix.
type ErrorKind string

const (
	// ErrConnection means the model server is unreachable or timed out.
	ErrConnection ErrorKind = "connection"
	// ErrProtocol means the model server answered with a non-success status.
	ErrProtocol ErrorKind = "protocol"
	// ErrDomain means the request was well-formed but the state makes it
	// unanswerable (empty store, no qualifying results, wrong model type).
	ErrDomain ErrorKind = "domain"
	// ErrConfig means an unknown pipeline or document id was referenced.
	ErrConfig ErrorKind = "config"
)

// Error is the tagged error type used at every operation boundary.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status from the model server, protocol errors only
	Message string // human-readable, carries actionable guidance for domain errors
	Err     error  // wrapped cause, connection errors only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ConnectionError wraps a transport failure talking to the model server.
func ConnectionError(msg string, err error) *Error {
	return &Error{Kind: ErrConnection, Message: msg, Err: err}
}

// ProtocolError reports a non-success response with the server's own message.
func ProtocolError(status int, msg string) *Error {
	return &Error{Kind: ErrProtocol, Status: status, Message: msg}
}

// DomainError reports a state problem with actionable guidance in the message.
func DomainError(format string, args ...any) *Error {
	return &Error{Kind: ErrDomain, Message: fmt.Sprintf(format, args...)}
}

// ConfigError reports a reference to an unknown pipeline or document.
func ConfigError(format string, args ...any) *Error {
	return &Error{Kind: ErrConfig, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err if it wraps an engine Error, or "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

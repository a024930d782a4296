// Package apperr defines the typed error kinds surfaced across hyperfind's
// serving and background tiers, mirroring the retry/propagation policy each
// kind carries: some are surfaced to callers untouched, some are retried with
// backoff, some degrade a response instead of failing it outright.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for routing/retry decisions.
type Kind string

const (
	// BadConfig marks invalid input the caller must fix; never retried.
	BadConfig Kind = "bad_config"
	// NotFound marks a missing document, job, or other identified resource.
	NotFound Kind = "not_found"
	// Conflict marks a duplicate on an operation that requires uniqueness.
	Conflict Kind = "conflict"
	// RateLimited marks rejection by a rate limiter.
	RateLimited Kind = "rate_limited"
	// RetryableRemote marks a transient failure from an HTTP or LLM call
	// that is safe to retry with backoff.
	RetryableRemote Kind = "retryable_remote"
	// PermanentRemote marks a non-2xx or unsupported-content-type response
	// that will not succeed on retry.
	PermanentRemote Kind = "permanent_remote"
	// EmbeddingFailure marks an embedding provider failure; callers should
	// degrade (skip semantic results, keep prior embeddings) rather than fail.
	EmbeddingFailure Kind = "embedding_failure"
	// LLMUnavailable marks a generator failure; callers should fall back to
	// a deterministic answer instead of failing the request.
	LLMUnavailable Kind = "llm_unavailable"
	// PersistenceFailure marks a storage backend failure that should
	// propagate to the caller and be retried by background workers.
	PersistenceFailure Kind = "persistence_failure"
)

// Error is a typed, wrapped application error.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "crawl.validateConfig"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an Error of the given kind from a format string.
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err does not carry one.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Retryable reports whether the error's kind is one background workers
// should retry with backoff (RetryableRemote, PersistenceFailure).
func Retryable(err error) bool {
	switch KindOf(err) {
	case RetryableRemote, PersistenceFailure:
		return true
	default:
		return false
	}
}

package store

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine error.
type Kind string

const (
	// KindValidation: bad enum value, malformed id, malformed field.
	// Rejected before touching storage.
	KindValidation Kind = "validation"
	// KindNotFound: the target id does not exist.
	KindNotFound Kind = "not_found"
	// KindContention: the store stayed locked beyond the retry budget.
	KindContention Kind = "contention"
	// KindSchemaStale: a read session found an out-of-date schema.
	KindSchemaStale Kind = "schema_stale"
	// KindIndexParse: the query could not become a valid FTS expression.
	KindIndexParse Kind = "index_parse"
)

// Error is a structured engine error: kind, message, and an optional
// hint telling the caller what to do about it.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	wrapped error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is matches two engine errors by kind, so callers can test
// errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("record %d not found", id)}
}

func contentionErr(err error) *Error {
	return &Error{
		Kind:    KindContention,
		Message: err.Error(),
		Hint:    "the store is locked by another writer; retry in a moment",
		wrapped: err,
	}
}

func schemaStaleErr(have, want int) *Error {
	return &Error{
		Kind:    KindSchemaStale,
		Message: fmt.Sprintf("store schema version %d is behind expected %d", have, want),
		Hint:    "run `mnemo migrate` (or any write command) to upgrade the store",
	}
}

func indexParseErr(query string, err error) *Error {
	return &Error{
		Kind:    KindIndexParse,
		Message: fmt.Sprintf("full-text query %q could not be parsed: %v", query, err),
		Hint:    "simplify the search text; punctuation-only input cannot be indexed",
		wrapped: err,
	}
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// isBusy recognizes SQLite contention errors from the driver.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// isFTSParse recognizes FTS5 expression parse failures.
func isFTSParse(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "malformed match expression") ||
		strings.Contains(msg, "unterminated string")
}

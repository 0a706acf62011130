package paging

import (
	"errors"
	"fmt"
)

// Code classifies an engine error.
type Code string

const (
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeDegradedLayout     Code = "DEGRADED_LAYOUT"
	CodeStaleAnchor        Code = "STALE_ANCHOR"
	CodeUnpaginatedChapter Code = "UNPAGINATED_CHAPTER"
	CodeUnresolvedLayout   Code = "UNRESOLVED_LAYOUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeRebuilding         Code = "REBUILDING"
)

// Sentinels for errors.Is. Every *Error matches the sentinel carrying its code.
var (
	ErrOutOfRange         = &Error{Code: CodeOutOfRange, Message: "index out of range"}
	ErrDegradedLayout     = &Error{Code: CodeDegradedLayout, Message: "page rectangle cannot fit a single character"}
	ErrStaleAnchor        = &Error{Code: CodeStaleAnchor, Message: "offset outside chapter text"}
	ErrUnpaginatedChapter = &Error{Code: CodeUnpaginatedChapter, Message: "chapter not paginated"}
	ErrUnresolvedLayout   = &Error{Code: CodeUnresolvedLayout, Message: "layout configuration not resolved"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrRebuilding         = &Error{Code: CodeRebuilding, Message: "re-pagination already in progress"}
)

// Error is an engine error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func outOfRange(what string, idx, n int) error {
	return newError(CodeOutOfRange, "%s %d out of range [0,%d)", what, idx, n)
}

// CodeOf returns the code of err, or "" if err is not an engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

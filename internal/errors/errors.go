// Package errors classifies the failures changeplan reports.
//
// Every error raised by the domain, the adapters and the use cases is an
// *Error carrying a Kind, so the CLI can decide how to present it without
// matching on message text.
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// Kind groups errors by the part of the system that rejected the request.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindGit
	KindTemplate
	KindState
	KindIO
	KindValidation
	KindNotFound
	KindConflict
	KindCanceled
	KindInternal
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindConfig:     "configuration",
	KindGit:        "git",
	KindTemplate:   "template",
	KindState:      "state",
	KindIO:         "io",
	KindValidation: "validation",
	KindNotFound:   "not_found",
	KindConflict:   "conflict",
	KindCanceled:   "canceled",
	KindInternal:   "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Error is a classified failure. Op names the operation that failed, in
// the form "component.Method".
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error on Kind, and on Op too when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind != e.Kind {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

// WithDetail attaches a key/value pair, such as the offending file.
func (e *Error) WithDetail(key string, value any) *Error {
	return e.WithDetails(map[string]any{key: value})
}

// WithDetails merges details into the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// Wrap classifies err under kind.
func Wrap(err error, kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, op, format string, args ...any) *Error {
	return Wrap(err, kind, op, fmt.Sprintf(format, args...))
}

// GetKind returns the Kind of the outermost *Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

func Config(op, message string) *Error     { return Wrap(nil, KindConfig, op, message) }
func Git(op, message string) *Error        { return Wrap(nil, KindGit, op, message) }
func State(op, message string) *Error      { return Wrap(nil, KindState, op, message) }
func Validation(op, message string) *Error { return Wrap(nil, KindValidation, op, message) }
func NotFound(op, message string) *Error   { return Wrap(nil, KindNotFound, op, message) }
func Conflict(op, message string) *Error   { return Wrap(nil, KindConflict, op, message) }
func Internal(op, message string) *Error   { return Wrap(nil, KindInternal, op, message) }

func ConfigWrap(err error, op, message string) *Error {
	return Wrap(err, KindConfig, op, message)
}

func GitWrap(err error, op, message string) *Error {
	return Wrap(err, KindGit, op, message)
}

func StateWrap(err error, op, message string) *Error {
	return Wrap(err, KindState, op, message)
}

func ValidationWrap(err error, op, message string) *Error {
	return Wrap(err, KindValidation, op, message)
}

func NotFoundWrap(err error, op, message string) *Error {
	return Wrap(err, KindNotFound, op, message)
}

func ConflictWrap(err error, op, message string) *Error {
	return Wrap(err, KindConflict, op, message)
}

func IOWrap(err error, op, message string) *Error {
	return Wrap(err, KindIO, op, message)
}

func InternalWrap(err error, op, message string) *Error {
	return Wrap(err, KindInternal, op, message)
}

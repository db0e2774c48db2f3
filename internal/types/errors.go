// README: Discriminated domain errors; the HTTP layer maps Kind to a status code.
package types

import (
    "errors"
    "fmt"
)

type Kind string

const (
    KindValidation        Kind = "validation"
    KindNotFound          Kind = "not_found"
    KindInvalidState      Kind = "invalid_state"
    KindForbidden         Kind = "forbidden"
    KindInvalidDistance   Kind = "invalid_distance"
    KindInvalidCoordinate Kind = "invalid_coordinate"
    KindConflict          Kind = "conflict"
)

// Error is a domain failure carrying its kind. Field names the offending input
// for validation failures.
type Error struct {
    Kind  Kind
    Field string
    Msg   string
}

func (e *Error) Error() string {
    if e.Msg != "" {
        return e.Msg
    }
    if e.Field != "" {
        return fmt.Sprintf("%s: invalid %s", e.Kind, e.Field)
    }
    return string(e.Kind)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
    t, ok := target.(*Error)
    if !ok {
        return false
    }
    return t.Kind == e.Kind
}

var (
    ErrValidation        = &Error{Kind: KindValidation}
    ErrNotFound          = &Error{Kind: KindNotFound}
    ErrInvalidState      = &Error{Kind: KindInvalidState}
    ErrForbidden         = &Error{Kind: KindForbidden}
    ErrInvalidDistance   = &Error{Kind: KindInvalidDistance}
    ErrInvalidCoordinate = &Error{Kind: KindInvalidCoordinate}
    ErrConflict          = &Error{Kind: KindConflict}
)

func Validation(field, msg string) error {
    return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

func NotFound(msg string) error {
    return &Error{Kind: KindNotFound, Msg: msg}
}

func InvalidState(msg string) error {
    return &Error{Kind: KindInvalidState, Msg: msg}
}

func Forbidden(msg string) error {
    return &Error{Kind: KindForbidden, Msg: msg}
}

func Conflict(msg string) error {
    return &Error{Kind: KindConflict, Msg: msg}
}

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) Kind {
    var e *Error
    if errors.As(err, &e) {
        return e.Kind
    }
    return ""
}

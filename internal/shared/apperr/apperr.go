// Package apperr carries the client-safe side of an error: a Kind that maps to
// an HTTP status, a public message and optional per-field messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Invalid      Kind = "invalid"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	Conflict     Kind = "conflict"
	Internal     Kind = "internal"
)

const defaultPublicMsg = "Something went wrong."

var statusByKind = map[Kind]int{
	Invalid:      http.StatusBadRequest,
	NotFound:     http.StatusNotFound,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	Conflict:     http.StatusConflict,
	Internal:     http.StatusInternalServerError,
}

type AppError struct {
	Kind      Kind
	PublicMsg string            // shown to clients
	Fields    map[string]string // field -> message, validation only
	Err       error             // cause, logged only
}

func (e *AppError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.PublicMsg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another AppError with the same kind and public message, so a
// package-level sentinel still matches after WithErr.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind && t.PublicMsg == e.PublicMsg
}

// WithErr returns a copy of e carrying cause. Sentinels stay untouched.
func (e *AppError) WithErr(cause error) *AppError {
	cp := *e
	cp.Err = cause
	return &cp
}

func (e *AppError) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newErr(k Kind, msg string) *AppError { return &AppError{Kind: k, PublicMsg: msg} }

func InvalidErr(publicMsg string, fields map[string]string) *AppError {
	e := newErr(Invalid, publicMsg)
	e.Fields = fields
	return e
}

func NotFoundErr(publicMsg string) *AppError     { return newErr(NotFound, publicMsg) }
func UnauthorizedErr(publicMsg string) *AppError { return newErr(Unauthorized, publicMsg) }
func ForbiddenErr(publicMsg string) *AppError    { return newErr(Forbidden, publicMsg) }
func ConflictErr(publicMsg string) *AppError     { return newErr(Conflict, publicMsg) }

// Wrap hides an unexpected error behind a 500. AppErrors pass through.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return &AppError{Kind: Internal, PublicMsg: defaultPublicMsg, Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == k
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return defaultPublicMsg
}

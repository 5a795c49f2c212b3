package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", InvalidErr("bad", nil), http.StatusBadRequest},
		{"unauthorized", UnauthorizedErr("login"), http.StatusUnauthorized},
		{"forbidden", ForbiddenErr("no"), http.StatusForbidden},
		{"not found", NotFoundErr("missing"), http.StatusNotFound},
		{"conflict", ConflictErr("dup"), http.StatusConflict},
		{"wrapped internal", Wrap(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"fmt wrapped app error", fmt.Errorf("ctx: %w", NotFoundErr("x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapKeepsAppErrors(t *testing.T) {
	orig := ConflictErr("taken")
	assert.Same(t, orig, Wrap(orig))
	assert.Nil(t, Wrap(nil))
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Wrap(errors.New("dial tcp 10.0.0.1: refused"))
	assert.Equal(t, defaultPublicMsg, PublicMessage(err))
	assert.Equal(t, "taken", PublicMessage(ConflictErr("taken")))
	assert.True(t, IsKind(err, Internal))
	assert.ErrorContains(t, err, "refused")
}

func TestWithErrCopiesSentinel(t *testing.T) {
	sentinel := NotFoundErr("Shop not found.")
	cause := errors.New("record not found")

	got := sentinel.WithErr(cause)
	assert.NotSame(t, sentinel, got)
	assert.Nil(t, sentinel.Err)
	assert.ErrorIs(t, got, cause)
	assert.ErrorIs(t, got, sentinel)
	assert.ErrorIs(t, fmt.Errorf("load: %w", got), sentinel)
	assert.NotErrorIs(t, got, NotFoundErr("Product not found."))
}

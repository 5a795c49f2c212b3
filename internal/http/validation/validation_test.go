package validation

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketly.com/app/internal/shared/apperr"
)

type sampleInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `form:"full_name" binding:"min=2"`
	Price    int64  `json:"price_cents" binding:"gte=0"`
	Quantity int    `json:"quantity" binding:"min=1"`
	Status   string `json:"status" binding:"omitempty,oneof=draft active"`
}

func TestFromBindErrorUsesTagNames(t *testing.T) {
	in := sampleInput{Email: "nope", Name: "x", Price: -1, Quantity: 0, Status: "gone"}
	err := binding.Validator.ValidateStruct(&in)
	require.Error(t, err)

	got := FromBindError(err, &in)
	assert.Equal(t, FieldErrors{
		"email":       "Enter a valid email address.",
		"full_name":   "Must be at least 2 characters.",
		"price_cents": "Must be 0 or more.",
		"quantity":    "Must be at least 1.",
		"status":      "Must be one of: draft, active.",
	}, got)
}

func TestFromBindErrorNonValidation(t *testing.T) {
	got := FromBindError(errors.New("json: cannot unmarshal"), &sampleInput{})
	assert.Equal(t, FieldErrors{"_": "The submitted data is invalid."}, got)
}

func TestAsAppError(t *testing.T) {
	in := sampleInput{Quantity: 1}
	err := binding.Validator.ValidateStruct(&in)
	require.Error(t, err)

	ae := AsAppError(err, &in)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Equal(t, "This field is required.", ae.Fields["email"])
}

// Package validation turns gin binding errors into field -> message maps.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketly.com/app/internal/shared/apperr"
)

type FieldErrors map[string]string

// FromBindError maps validator errors to the json (or form) name of each
// field. dst is the struct pointer that was bound. Other bind errors, such as
// type mismatches or malformed JSON, land under "_".
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(dst, fe.StructField())] = messageFor(fe)
		}
		return out
	}

	out["_"] = "The submitted data is invalid."
	return out
}

// AsAppError wraps a bind error as a 400 with field details.
func AsAppError(err error, dst any) *apperr.AppError {
	return apperr.InvalidErr("Please correct the highlighted fields.", FromBindError(err, dst)).WithErr(err)
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t == nil {
		return strings.ToLower(structField)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	for _, key := range []string{"json", "form"} {
		tag := f.Tag.Get(key)
		if i := strings.Index(tag, ","); i >= 0 {
			tag = tag[:i]
		}
		if tag != "" && tag != "-" {
			return tag
		}
	}
	return strings.ToLower(structField)
}

func messageFor(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if isString {
			return "Must be at least " + param + " characters."
		}
		return "Must be at least " + param + "."
	case "max":
		if isString {
			return "Must be at most " + param + " characters."
		}
		return "Must be at most " + param + "."
	case "gte":
		return "Must be " + param + " or more."
	case "lte":
		return "Must be " + param + " or less."
	case "gt":
		return "Must be greater than " + param + "."
	case "len":
		return "Must be exactly " + param + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "url":
		return "Enter a valid URL."
	case "uuid", "uuid4":
		return "Must be a valid id."
	case "alpha":
		return "Only letters are allowed."
	case "dive":
		return "Contains an invalid entry."
	default:
		return "Invalid value."
	}
}

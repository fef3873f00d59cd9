package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationErrors flattens validator errors into one caller-facing sentence.
func FormatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must be at least "+e.Param())
		case "max":
			msgs = append(msgs, field+" must be at most "+e.Param())
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+e.Param())
		case "gt", "gte":
			msgs = append(msgs, field+" must be greater than "+e.Param())
		case "url", "http_url":
			msgs = append(msgs, field+" must be an absolute http(s) URL")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/travelwallet/travelwallet/internal/model"
)

// ErrInvalidJSON indicates a body that is not a single JSON object of the expected shape.
var ErrInvalidJSON = errors.New("invalid request body")

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a JSON object from r into dst and validates its struct tags.
// Unknown fields and trailing data are rejected.
func Decode(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
	}
	return Validate(dst)
}

// Validate runs struct tag validation and wraps the first failure in model.ErrValidation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	field = strings.ReplaceAll(field, "TourDetailsRequest.", "")

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", model.ErrValidation, field)
	case "email":
		return fmt.Errorf("%w: %s must be an email address", model.ErrValidation, field)
	case "datetime":
		return fmt.Errorf("%w: %s must be YYYY-MM-DD", model.ErrValidation, field)
	case "max":
		return fmt.Errorf("%w: %s exceeds maximum length %s", model.ErrValidation, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s failed %s", model.ErrValidation, field, fe.Tag())
	}
}

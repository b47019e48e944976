package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

// Path parameter limits.
const (
	// MaxTourIDLength bounds the {id} parameter. Tour ids are 26-character ULIDs.
	MaxTourIDLength = 64

	// MaxEmailParamLength is the RFC 5321 limit for a forward path.
	MaxEmailParamLength = 254
)

// Path parameter errors.
var (
	ErrParamTooLong = errors.New("path parameter exceeds maximum length")
	ErrParamInvalid = errors.New("path parameter contains invalid characters")
)

// ValidateTourIDParam rejects oversized ids and anything outside [A-Za-z0-9_-].
// Empty ids pass; the router decides whether the route exists.
func ValidateTourIDParam(id string) error {
	if len(id) > MaxTourIDLength {
		return ErrParamTooLong
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrParamInvalid
		}
	}
	return nil
}

// ValidateEmailParam rejects oversized values, invalid UTF-8, whitespace and
// control characters. Address syntax is checked by the service.
func ValidateEmailParam(email string) error {
	if len(email) > MaxEmailParamLength {
		return ErrParamTooLong
	}
	if !utf8.ValidString(email) {
		return ErrParamInvalid
	}
	for _, r := range email {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ErrParamInvalid
		}
	}
	return nil
}

// ValidatePathParams checks the {id} and {email} route parameters before the
// request reaches a handler or the rate limiter. It must run inside a chi
// route that declares them.
func ValidatePathParams(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateTourIDParam(chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_TOUR_ID", "Invalid tour id")
			return
		}
		email, err := url.PathUnescape(chi.URLParam(r, "email"))
		if err == nil {
			err = ValidateEmailParam(email)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid email")
			return
		}
		next.ServeHTTP(w, r)
	})
}

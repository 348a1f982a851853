package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt limits passwords by bytes, max counts runes
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Details map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) add(field, message string) {
	if e.Details == nil {
		e.Details = make(map[string][]string)
	}
	e.Details[field] = append(e.Details[field], message)
}

var errInvalidBody = errors.New("invalid request body")

// normalizer is implemented by requests that trim or canonicalize fields before validation.
type normalizer interface {
	normalize()
}

// decodeJSON reads the request body into dst, normalizes it and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validateStruct(dst)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email"
	case "url", "http_url":
		return "Invalid " + strings.ToLower(label)
	case "min", "gte":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return label + " is required"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", label, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	}
	return label + " is invalid"
}

// humanize turns a camelCase JSON name into a sentence-case label: fullAddress -> Full address.
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// idParam parses a UUID path parameter. Malformed ids are reported as missing.
func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type errorResponder struct {
	logger *slog.Logger
}

// respondError maps domain and validation errors to their HTTP form and
// logs anything else as an internal error.
func (e errorResponder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	var validationErr *ValidationError

	switch {
	case errors.As(err, &domainErr):
		writeErrorMessage(w, domainErr.Status, domainErr.Message)
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": validationErr.Details,
		})
	case errors.Is(err, errInvalidBody):
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
	default:
		e.logger.ErrorContext(r.Context(), "unhandled error",
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

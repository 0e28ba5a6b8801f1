package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
)

const (
	maxBodyBytes = 1 << 20

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrInvalidBody = apperror.Validation("invalid request body")
	ErrInvalidID   = apperror.Validation("invalid id")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Rejects whitespace-only strings on fields the services trim
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	// Report JSON field names rather than Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	return v
}

// DecodeJSON decodes a size-limited JSON body into dst and validates it
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("request body is required")
		}
		// Custom unmarshalers report their own validation errors
		if appErr, ok := apperror.As(err); ok {
			return appErr
		}
		return ErrInvalidBody
	}

	return Validate(dst)
}

// Validate runs struct tag validation and converts failures to field errors
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperror.Internal("failed to validate request", err)
	}

	fields := make([]apperror.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}

	return apperror.Validation("validation failed", fields...)
}

// fieldPath drops the root struct name from the namespace, e.g. "location.city"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx != -1 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", fe.Field())
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid id"
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// URLParamUUID parses a chi URL parameter as a UUID
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// Pagination is the page metadata returned with list responses
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit)
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ParsePage reads page and limit query parameters, falling back to defaults
// for missing or invalid values. limit is capped at MaxLimit and page at the
// largest value whose offset still fits in an int.
func ParsePage(r *http.Request) (page, limit int) {
	page, limit = DefaultPage, DefaultLimit

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, MaxLimit)
	}

	// keeps Offset from overflowing
	page = min(page, math.MaxInt/limit)

	return page, limit
}

// Offset converts page/limit into a row offset
func Offset(page, limit int) int {
	return (page - 1) * limit
}

package httputil

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatebid/estatebid-api/internal/apperror"
)

type sampleRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Location struct {
		City string `json:"city" validate:"required"`
	} `json:"location"`
}

func TestRespondError_MapsKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperror.NotFound("bid not found"), http.StatusNotFound, "bid not found"},
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden, "no"},
		{"conflict", apperror.Conflict("dup"), http.StatusBadRequest, "dup"},
		{"unknown error is hidden", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
		{"internal kind is hidden", apperror.Internal("secret detail", errors.New("x")), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestRespondSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, http.StatusCreated, "created", map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"id":"1"}}`, rec.Body.String())
}

func TestDecodeJSON_ValidationFields(t *testing.T) {
	body := `{"name":"","email":"not-an-email","location":{"city":""}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dst sampleRequest
	err := DecodeJSON(rec, req, &dst)
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)

	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "name is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Contains(t, fields, "location.city")
}

func TestDecodeJSON_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var dst sampleRequest
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 10, 0).Pages)
	assert.Equal(t, 1, NewPagination(1, 10, 10).Pages)
	assert.Equal(t, 2, NewPagination(1, 10, 11).Pages)
	assert.Equal(t, 7, NewPagination(3, 3, 19).Pages)
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"page=3&limit=5", 3, 5},
		{"page=-1&limit=0", 1, 10},
		{"page=abc&limit=1000", 1, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			page, limit := ParsePage(r)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}

	assert.Equal(t, 20, Offset(3, 10))
}

func TestParsePage_HugePageKeepsOffsetPositive(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=9223372036854775807&limit=10", nil)

	page, limit := ParsePage(r)

	assert.Equal(t, 10, limit)
	assert.Equal(t, math.MaxInt/10, page)
	assert.GreaterOrEqual(t, Offset(page, limit), 0)

	r = httptest.NewRequest(http.MethodGet, "/?page=99999999999999999999", nil)
	page, _ = ParsePage(r)
	assert.Equal(t, DefaultPage, page, "unparseable pages fall back")
}

func TestValidate_NotBlank(t *testing.T) {
	type titled struct {
		Title string `json:"title" validate:"required,notblank"`
	}

	err := Validate(&titled{Title: " \t "})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "title", appErr.Fields[0].Field)
	assert.Equal(t, "title must not be blank", appErr.Fields[0].Message)

	assert.NoError(t, Validate(&titled{Title: " House "}))
}

package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusBadRequest},
		{KindInvalidState, http.StatusBadRequest},
		{KindTooManyRequests, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf_WrappedSentinel(t *testing.T) {
	errMissing := NotFound("thing not found")
	wrapped := fmt.Errorf("load thing: %w", errMissing)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, errMissing))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to send email", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to send email: connection refused", err.Error())
}

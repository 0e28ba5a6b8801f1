package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/user"
)

func newHandlerFixture(t *testing.T) (*Handler, *serviceFixture, *mockCooldown) {
	t.Helper()

	f := newServiceFixture(t, false)
	cooldown := new(mockCooldown)
	t.Cleanup(func() { cooldown.AssertExpectations(t) })

	return NewHandler(f.svc, cooldown), f, cooldown
}

func doJSON(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_RegisterValidation(t *testing.T) {
	h, _, _ := newHandlerFixture(t)

	rec := doJSON(h.Register, http.MethodPost, "/api/auth/register", `{"name":"","email":"bad","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)

	fields := map[string]bool{}
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestHandler_RegisterCreated(t *testing.T) {
	h, f, _ := newHandlerFixture(t)

	created := &user.User{ID: uuid.New(), Name: "Ama", Email: "ama@example.com", Role: user.RolePropertyOwner}
	f.users.On("Create", mock.Anything, mock.Anything).Return(created, nil)
	f.email.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := doJSON(h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ama","email":"ama@example.com","password":"secret1","role":"property_owner"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User  map[string]any `json:"user"`
			Token string         `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "property_owner", body.Data.User["role"])
	assert.NotContains(t, body.Data.User, "passwordHash")
}

func TestHandler_LoginUnauthorized(t *testing.T) {
	h, f, _ := newHandlerFixture(t)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, user.ErrNotFound)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestHandler_ForgotPasswordCooldown(t *testing.T) {
	h, f, cooldown := newHandlerFixture(t)

	cooldown.On("CheckEmailCooldown", mock.Anything, "ghost@example.com").Return(false, nil).Once()
	cooldown.On("SetEmailCooldown", mock.Anything, "ghost@example.com").Return(nil).Once()
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, user.ErrNotFound).Once()

	rec := doJSON(h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	cooldown.On("CheckEmailCooldown", mock.Anything, "ghost@example.com").Return(true, nil).Once()

	rec = doJSON(h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandler_MeRequiresUser(t *testing.T) {
	h, _, _ := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	u := &user.User{ID: uuid.New(), Name: "Ama", Role: user.RoleAdmin}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(WithUser(req.Context(), u))
	rec = httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ama"`)
}

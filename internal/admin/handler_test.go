package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/user"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()

	f := newFixture(t)
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), adminUser)))
		})
	})
	r.Get("/api/admin/users", h.ListUsers)
	r.Put("/api/admin/users/{id}", h.UpdateUser)
	r.Delete("/api/admin/users/{id}", h.DeleteUser)

	return r, f
}

func TestHandler_ListUsers(t *testing.T) {
	h, f := newTestRouter(t)

	f.users.On("List", mock.Anything, user.ListFilter{Role: user.RoleAdmin, Search: "ama", Page: 3, Limit: 10}).
		Return([]user.User{}, int64(21), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?role=admin&search=ama&page=3", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data UserPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.Pagination.Pages)
}

func TestHandler_UpdateUserInvalidRole(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/"+uuid.NewString(), strings.NewReader(`{"role":"root"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteSelfForbidden(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+adminUser.ID.String(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package property

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
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/user"
)

func newTestRouter(t *testing.T, actor *user.User) (http.Handler, *serviceFixture) {
	t.Helper()

	f := newServiceFixture(t)
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if actor != nil {
				req = req.WithContext(auth.WithUser(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/properties", h.List)
	r.Post("/api/properties", h.Create)
	r.Get("/api/properties/my/properties", h.ListMine)
	r.Get("/api/properties/{id}", h.Get)
	r.Put("/api/properties/{id}", h.Update)
	r.Delete("/api/properties/{id}", h.Delete)

	return r, f
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListParsesFilters(t *testing.T) {
	h, f := newTestRouter(t, nil)

	minPrice, maxPrice := 1000.0, 90000.0
	f.store.On("List", mock.Anything, Filter{
		Type:     TypeHouse,
		City:     "accra",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Search:   "garden",
		Page:     2,
		Limit:    100,
	}).Return([]Property{}, int64(0), nil)

	rec := serve(h, http.MethodGet, "/api/properties?type=house&city=accra&minPrice=1000&maxPrice=90000&search=garden&page=2&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.Pagination.Page)
	assert.Equal(t, 100, body.Data.Pagination.Limit)
}

func TestHandler_ListBadPrice(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/api/properties?minPrice=cheap", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "minPrice", body.Errors[0].Field)
}

func TestHandler_CreateValidation(t *testing.T) {
	h, _ := newTestRouter(t, owner)

	rec := serve(h, http.MethodPost, "/api/properties", `{
		"title": "House1",
		"description": "Nice",
		"type": "castle",
		"price": -5,
		"location": {"address": "1 Main St", "city": "", "state": "GA", "zipCode": "1"},
		"images": ["not a url"]
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	fields := map[string]bool{}
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["type"])
	assert.True(t, fields["price"])
	assert.True(t, fields["location.city"])
	assert.True(t, fields["images[0]"])
}

func TestHandler_CreateRejectsNestedFeature(t *testing.T) {
	h, _ := newTestRouter(t, owner)

	rec := serve(h, http.MethodPost, "/api/properties", `{
		"title": "House1", "description": "Nice", "type": "house", "price": 1,
		"location": {"address": "a", "city": "b", "state": "c", "zipCode": "d"},
		"features": {"rooms": {"count": 3}}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrInvalidFeature.Message, body.Message)
}

func TestHandler_BlankTextRejected(t *testing.T) {
	h, f := newTestRouter(t, owner)

	fieldsOf := func(rec *httptest.ResponseRecorder) map[string]bool {
		var body httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		fields := map[string]bool{}
		for _, fe := range body.Errors {
			fields[fe.Field] = true
		}
		return fields
	}

	rec := serve(h, http.MethodPost, "/api/properties", `{
		"title": "   ", "description": "\t\n", "type": "house", "price": 1,
		"location": {"address": " ", "city": "b", "state": "c", "zipCode": "d"}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := fieldsOf(rec)
	assert.True(t, fields["title"])
	assert.True(t, fields["description"])
	assert.True(t, fields["location.address"])

	rec = serve(h, http.MethodPut, "/api/properties/"+uuid.NewString(), `{"title": "  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, fieldsOf(rec)["title"])

	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_CreateSuccess(t *testing.T) {
	h, f := newTestRouter(t, owner)

	created := listing(owner.ID)
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(in NewProperty) bool {
		return in.Features["bedrooms"] == Number(3) && len(in.Images) == 1
	})).Return(created, nil)

	rec := serve(h, http.MethodPost, "/api/properties", `{
		"title": "House1", "description": "Nice", "type": "house", "price": 50000,
		"location": {"address": "a", "city": "b", "state": "c", "zipCode": "d"},
		"images": ["https://cdn.example.com/1.jpg"],
		"features": {"bedrooms": 3}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data PropertyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, created.ID, body.Data.Property.ID)
	assert.Equal(t, StatusAvailable, body.Data.Property.Status)
}

func TestHandler_UpdatePendingStatus(t *testing.T) {
	h, _ := newTestRouter(t, owner)

	rec := serve(h, http.MethodPut, "/api/properties/"+uuid.NewString(), `{"status":"pending"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrPendingStatus.Message, body.Message)
}

func TestHandler_GetNotFound(t *testing.T) {
	h, f := newTestRouter(t, nil)

	id := uuid.New()
	f.store.On("GetByID", mock.Anything, id).Return(nil, ErrNotFound)

	rec := serve(h, http.MethodGet, "/api/properties/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DeleteForbidden(t *testing.T) {
	h, f := newTestRouter(t, other)

	p := listing(owner.ID)
	f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	rec := serve(h, http.MethodDelete, "/api/properties/"+p.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

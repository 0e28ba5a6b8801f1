package bid

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

func newTestRouter(t *testing.T, actor *user.User) (http.Handler, *mockStore, *mockInvalidator) {
	t.Helper()

	svc, store, cache := newTestService(t)
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if actor != nil {
				req = req.WithContext(auth.WithUser(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/api/bids", h.Create)
	r.Get("/api/bids", h.List)
	r.Get("/api/bids/{id}", h.Get)
	r.Put("/api/bids/{id}/status", h.UpdateStatus)
	r.Delete("/api/bids/{id}", h.Delete)

	return r, store, cache
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateValidation(t *testing.T) {
	h, _, _ := newTestRouter(t, seeker)

	for _, body := range []string{
		`{"propertyId":"not-a-uuid","amount":10}`,
		`{"propertyId":"` + uuid.NewString() + `"}`,
		`{"propertyId":"` + uuid.NewString() + `","amount":-5}`,
		`{"propertyId":"` + uuid.NewString() + `","amount":5,"message":"` + strings.Repeat("x", 1001) + `"}`,
	} {
		rec := serve(h, http.MethodPost, "/api/bids", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandler_CreateZeroAmountAllowed(t *testing.T) {
	h, store, cache := newTestRouter(t, seeker)

	propertyID := uuid.New()
	bidID := uuid.New()
	store.On("GetPropertyState", mock.Anything, propertyID).Return(&PropertyState{ID: propertyID, OwnerID: owner.ID, Status: "available"}, nil)
	store.On("HasPending", mock.Anything, propertyID, seeker.ID).Return(false, nil)
	store.On("Create", mock.Anything, NewBid{PropertyID: propertyID, BidderID: seeker.ID, Amount: 0}).Return(bidID, nil)
	store.On("GetByID", mock.Anything, bidID).Return(&Bid{ID: bidID, PropertyID: propertyID, BidderID: seeker.ID, Status: StatusPending}, nil)
	cache.On("Invalidate", mock.Anything, PropertyListNamespace).Return(nil)

	rec := serve(h, http.MethodPost, "/api/bids", `{"propertyId":"`+propertyID.String()+`","amount":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Bid Bid `json:"bid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, bidID, body.Data.Bid.ID)
	assert.Equal(t, StatusPending, body.Data.Bid.Status)
}

func TestHandler_CreateOwnPropertyForbidden(t *testing.T) {
	h, store, _ := newTestRouter(t, owner)

	propertyID := uuid.New()
	store.On("GetPropertyState", mock.Anything, propertyID).Return(&PropertyState{ID: propertyID, OwnerID: owner.ID, Status: "available"}, nil)

	rec := serve(h, http.MethodPost, "/api/bids", `{"propertyId":"`+propertyID.String()+`","amount":100}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrOwnProperty.Message, body.Message)
}

func TestHandler_RequiresUser(t *testing.T) {
	h, _, _ := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/api/bids", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ListWithPropertyFilter(t *testing.T) {
	h, store, _ := newTestRouter(t, owner)

	propertyID := uuid.New()
	store.On("List", mock.Anything, ListFilter{ActorID: owner.ID, PropertyIDs: []uuid.UUID{propertyID}}).
		Return([]Bid{{ID: uuid.New(), PropertyID: propertyID}}, nil)

	rec := serve(h, http.MethodGet, "/api/bids?propertyId="+propertyID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data BidsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Count)

	rec = serve(h, http.MethodGet, "/api/bids?propertyId=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetInvalidID(t *testing.T) {
	h, _, _ := newTestRouter(t, seeker)

	rec := serve(h, http.MethodGet, "/api/bids/123", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetNotFound(t *testing.T) {
	h, store, _ := newTestRouter(t, seeker)

	id := uuid.New()
	store.On("GetByID", mock.Anything, id).Return(nil, ErrNotFound)

	rec := serve(h, http.MethodGet, "/api/bids/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpdateStatusRejectsPending(t *testing.T) {
	h, _, _ := newTestRouter(t, owner)

	rec := serve(h, http.MethodPut, "/api/bids/"+uuid.NewString()+"/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdateStatusAccept(t *testing.T) {
	h, store, cache := newTestRouter(t, owner)

	b := pendingBid(uuid.New(), seeker.ID)
	accepted := *b
	accepted.Status = StatusAccepted

	store.On("GetByID", mock.Anything, b.ID).Return(b, nil).Once()
	store.On("Accept", mock.Anything, b.ID, b.PropertyID).Return(nil)
	store.On("GetByID", mock.Anything, b.ID).Return(&accepted, nil).Once()
	cache.On("Invalidate", mock.Anything, PropertyListNamespace).Return(nil)

	rec := serve(h, http.MethodPut, "/api/bids/"+b.ID.String()+"/status", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body httputil.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bid accepted", body.Message)
}

func TestHandler_DeleteForbiddenForStranger(t *testing.T) {
	stranger := &user.User{ID: uuid.New(), Role: user.RolePropertySeeker}
	h, store, _ := newTestRouter(t, stranger)

	b := pendingBid(uuid.New(), seeker.ID)
	store.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	rec := serve(h, http.MethodDelete, "/api/bids/"+b.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

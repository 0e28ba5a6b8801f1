package property

import (
	"net/http"
	"strconv"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/httputil"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LocationRequest struct {
	Address string `json:"address" validate:"required,notblank,max=200"`
	City    string `json:"city" validate:"required,notblank,max=100"`
	State   string `json:"state" validate:"required,notblank,max=100"`
	ZipCode string `json:"zipCode" validate:"required,notblank,max=20"`
	Country string `json:"country" validate:"max=100"`
}

func (l *LocationRequest) toLocation() Location {
	return Location{
		Address: l.Address,
		City:    l.City,
		State:   l.State,
		ZipCode: l.ZipCode,
		Country: l.Country,
	}
}

// CreatePropertyRequest is the body of POST /api/properties. Images are URLs
// of files already uploaded to the media store.
type CreatePropertyRequest struct {
	Title       string           `json:"title" validate:"required,notblank,max=200"`
	Description string           `json:"description" validate:"required,notblank,max=5000"`
	Type        string           `json:"type" validate:"required,oneof=house apartment land commercial car other"`
	Price       *float64         `json:"price" validate:"required,gte=0"`
	Location    *LocationRequest `json:"location" validate:"required"`
	Images      []string         `json:"images" validate:"max=10,dive,http_url"`
	Features    Features         `json:"features"`
}

// UpdatePropertyRequest is the body of PUT /api/properties/{id}. Omitted
// fields are left unchanged and images are appended.
type UpdatePropertyRequest struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string          `json:"description" validate:"omitempty,notblank,max=5000"`
	Type        *string          `json:"type" validate:"omitempty,oneof=house apartment land commercial car other"`
	Status      *string          `json:"status" validate:"omitempty,oneof=available pending sold rented"`
	Price       *float64         `json:"price" validate:"omitempty,gte=0"`
	Location    *LocationRequest `json:"location"`
	Images      []string         `json:"images" validate:"max=10,dive,http_url"`
	Features    Features         `json:"features"`
}

func (req *UpdatePropertyRequest) toPatch() Patch {
	patch := Patch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Features:    req.Features,
		Images:      req.Images,
	}
	if req.Type != nil {
		t := Type(*req.Type)
		patch.Type = &t
	}
	if req.Status != nil {
		s := Status(*req.Status)
		patch.Status = &s
	}
	if req.Location != nil {
		loc := req.Location.toLocation()
		patch.Location = &loc
	}
	return patch
}

type PropertyResponse struct {
	Property *Property `json:"property"`
}

type PropertiesResponse struct {
	Properties []Property `json:"properties"`
}

// Create lists a new property
// @Summary      Create a property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePropertyRequest true "Property"
// @Success      201 {object} httputil.SuccessResponse{data=PropertyResponse}
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /api/properties [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	var req CreatePropertyRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), actor, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        Type(req.Type),
		Price:       *req.Price,
		Location:    req.Location.toLocation(),
		Images:      req.Images,
		Features:    req.Features,
	})
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusCreated, "property created successfully", PropertyResponse{Property: p})
}

// List returns public listings
// @Summary      List properties
// @Tags         properties
// @Produce      json
// @Param        type query string false "Property type"
// @Param        status query string false "Property status"
// @Param        city query string false "City substring"
// @Param        state query string false "State substring"
// @Param        minPrice query number false "Minimum price"
// @Param        maxPrice query number false "Maximum price"
// @Param        search query string false "Full-text search over title and description"
// @Param        page query int false "Page" default(1)
// @Param        limit query int false "Page size" default(10)
// @Success      200 {object} httputil.SuccessResponse{data=ListResult}
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /api/properties [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", result)
}

// Get returns one listing, with bids when the caller is signed in
// @Summary      Get a property
// @Tags         properties
// @Produce      json
// @Param        id path string true "Property ID"
// @Success      200 {object} httputil.SuccessResponse{data=PropertyResponse}
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/properties/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamUUID(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	actor, _ := auth.UserFromContext(r.Context())

	p, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", PropertyResponse{Property: p})
}

// ListMine returns the caller's listings
// @Summary      List my properties
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.SuccessResponse{data=PropertiesResponse}
// @Router       /api/properties/my/properties [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	properties, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", PropertiesResponse{Properties: properties})
}

// Update changes a listing
// @Summary      Update a property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Property ID"
// @Param        request body UpdatePropertyRequest true "Fields to change"
// @Success      200 {object} httputil.SuccessResponse{data=PropertyResponse}
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/properties/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	id, err := httputil.URLParamUUID(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	var req UpdatePropertyRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), actor, id, req.toPatch())
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "property updated successfully", PropertyResponse{Property: p})
}

// Delete removes a listing and its bids
// @Summary      Delete a property
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Property ID"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/properties/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	id, err := httputil.URLParamUUID(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondMessage(w, http.StatusOK, "property deleted successfully")
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	page, limit := httputil.ParsePage(r)

	filter := Filter{
		Type:   Type(q.Get("type")),
		Status: Status(q.Get("status")),
		City:   q.Get("city"),
		State:  q.Get("state"),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}

	var err error
	if filter.MinPrice, err = parsePrice(q.Get("minPrice"), "minPrice"); err != nil {
		return Filter{}, err
	}
	if filter.MaxPrice, err = parsePrice(q.Get("maxPrice"), "maxPrice"); err != nil {
		return Filter{}, err
	}

	return filter, nil
}

func parsePrice(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Validation("invalid query parameter", apperror.FieldError{
			Field:   field,
			Message: "must be a number",
		})
	}
	return &v, nil
}

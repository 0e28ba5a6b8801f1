package bid

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/httputil"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateBidRequest is the body of POST /api/bids
type CreateBidRequest struct {
	PropertyID string   `json:"propertyId" validate:"required,uuid"`
	Amount     *float64 `json:"amount" validate:"required,gte=0"`
	Message    string   `json:"message" validate:"max=1000"`
}

// UpdateStatusRequest is the body of PUT /api/bids/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

type BidResponse struct {
	Bid *Bid `json:"bid"`
}

type BidsResponse struct {
	Bids  []Bid `json:"bids"`
	Count int   `json:"count"`
}

// Create places a bid
// @Summary      Place a bid
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBidRequest true "Bid"
// @Success      201 {object} httputil.SuccessResponse{data=BidResponse}
// @Failure      400 {object} httputil.ErrorResponse "Validation error, property unavailable or duplicate pending bid"
// @Failure      403 {object} httputil.ErrorResponse "Own property"
// @Failure      404 {object} httputil.ErrorResponse "Property not found"
// @Router       /api/bids [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	var req CreateBidRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		httputil.RespondError(w, r, httputil.ErrInvalidID)
		return
	}

	b, err := h.service.Create(r.Context(), actor, CreateInput{
		PropertyID: propertyID,
		Amount:     *req.Amount,
		Message:    req.Message,
	})
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusCreated, "bid placed successfully", BidResponse{Bid: b})
}

// List returns the bids visible to the caller
// @Summary      List bids
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        propertyId query string false "Only bids on this property"
// @Success      200 {object} httputil.SuccessResponse{data=BidsResponse}
// @Router       /api/bids [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrNotAuthenticated)
		return
	}

	var propertyID *uuid.UUID
	if raw := r.URL.Query().Get("propertyId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondError(w, r, httputil.ErrInvalidID)
			return
		}
		propertyID = &id
	}

	bids, err := h.service.List(r.Context(), actor, propertyID)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", BidsResponse{Bids: bids, Count: len(bids)})
}

// Get returns one bid
// @Summary      Get a bid
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bid ID"
// @Success      200 {object} httputil.SuccessResponse{data=BidResponse}
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/bids/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	b, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", BidResponse{Bid: b})
}

// UpdateStatus accepts or rejects a bid
// @Summary      Accept or reject a bid
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bid ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} httputil.SuccessResponse{data=BidResponse}
// @Failure      400 {object} httputil.ErrorResponse "Invalid status or bid no longer pending"
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/bids/{id}/status [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	b, err := h.service.UpdateStatus(r.Context(), actor, id, Status(req.Status))
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "bid "+req.Status, BidResponse{Bid: b})
}

// Delete removes a bid
// @Summary      Delete a bid
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bid ID"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/bids/{id} [delete]
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

	httputil.RespondMessage(w, http.StatusOK, "bid deleted successfully")
}

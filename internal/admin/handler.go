package admin

import (
	"net/http"

	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateUserRequest is the body of PUT /api/admin/users/{id}
type UpdateUserRequest struct {
	Role       *string `json:"role" validate:"omitempty,oneof=admin property_owner property_seeker"`
	IsVerified *bool   `json:"isVerified"`
}

type UserResponse struct {
	User *user.User `json:"user"`
}

// Statistics returns dashboard figures
// @Summary      Platform statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.SuccessResponse{data=Statistics}
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /api/admin/statistics [get]
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", stats)
}

// ListUsers returns a page of users
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role query string false "Role"
// @Param        search query string false "Name or email substring"
// @Param        page query int false "Page" default(1)
// @Param        limit query int false "Page size" default(10)
// @Success      200 {object} httputil.SuccessResponse{data=UserPage}
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /api/admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePage(r)
	q := r.URL.Query()

	result, err := h.service.ListUsers(r.Context(), user.ListFilter{
		Role:   user.Role(q.Get("role")),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", result)
}

// UpdateUser changes a user's role or verification flag
// @Summary      Update a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body UpdateUserRequest true "Fields to change"
// @Success      200 {object} httputil.SuccessResponse{data=UserResponse}
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/admin/users/{id} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamUUID(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	update := user.AdminUpdate{IsVerified: req.IsVerified}
	if req.Role != nil {
		role := user.Role(*req.Role)
		update.Role = &role
	}

	u, err := h.service.UpdateUser(r.Context(), id, update)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "user updated successfully", UserResponse{User: u})
}

// DeleteUser removes a user with their listings and bids
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      403 {object} httputil.ErrorResponse "Deleting yourself"
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/admin/users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondMessage(w, http.StatusOK, "user deleted successfully")
}

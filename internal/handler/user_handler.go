package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Signup(ctx context.Context, req dto.SignupRequest, meta models.Actor) (*models.User, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// UserHandler handles account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with pagination and search
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Search term"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /api/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", c.DefaultQuery("page_size", "20"))); err == nil {
		filter.PageSize = size
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}

	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/users/{userId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Signup godoc
// @Summary Sign up
// @Description Register a new account
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.SignupRequest true "Sign up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/users [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Update godoc
// @Summary Update user
// @Description Update the caller's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/users/{userId} [put]
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	user, err := h.service.Update(c.Request.Context(), actor, c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Delete user
// @Description Deactivate the caller's account and revoke its sessions
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/users/{userId} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// EmailAvailable godoc
// @Summary Check email availability
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /api/users/email/{email} [get]
func (h *UserHandler) EmailAvailable(c *gin.Context) {
	available, err := h.service.EmailAvailable(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AvailabilityResponse{Available: available}, nil)
}

// UsernameAvailable godoc
// @Summary Check username availability
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Router /api/users/username/{username} [get]
func (h *UserHandler) UsernameAvailable(c *gin.Context) {
	available, err := h.service.UsernameAvailable(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AvailabilityResponse{Available: available}, nil)
}

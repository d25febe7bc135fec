package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/middleware"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/response"
)

type surveyService interface {
	ListActive(ctx context.Context) ([]models.Survey, bool, error)
	ListByOwner(ctx context.Context, actor models.Actor, ownerID string) ([]models.Survey, error)
	Get(ctx context.Context, id string) (*models.Survey, error)
	Create(ctx context.Context, actor models.Actor, ownerID string, req dto.CreateSurveyRequest) (*models.Survey, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSurveyRequest) (*models.Survey, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	Activate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error)
	Inactivate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error)
}

// SurveyHandler exposes survey metadata endpoints.
type SurveyHandler struct {
	service surveyService
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(svc surveyService) *SurveyHandler {
	return &SurveyHandler{service: svc}
}

// ListActive godoc
// @Summary List active surveys
// @Description Expires overdue surveys, then lists every ACTIVE survey
// @Tags Surveys
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/surveys [get]
func (h *SurveyHandler) ListActive(c *gin.Context) {
	surveys, hit, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, surveys, nil, middleware.ExtractMeta(c))
}

// ListByOwner godoc
// @Summary List a user's surveys
// @Tags Surveys
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/by/{userId} [get]
func (h *SurveyHandler) ListByOwner(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	surveys, err := h.service.ListByOwner(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys, nil)
}

// Create godoc
// @Summary Create survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Owner ID"
// @Param payload body dto.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/by/{userId} [post]
func (h *SurveyHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateSurveyRequest
	if !bindJSON(c, &req, "invalid survey payload") {
		return
	}
	survey, err := h.service.Create(c.Request.Context(), actor, c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

// Get godoc
// @Summary Get survey
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/surveys/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// Update godoc
// @Summary Update survey
// @Description Rename a survey or move its expiration; a future date reopens an expired survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param payload body dto.UpdateSurveyRequest true "Survey payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/{id} [put]
// @Router /api/surveys/{id} [post]
func (h *SurveyHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateSurveyRequest
	if !bindJSON(c, &req, "invalid survey payload") {
		return
	}
	survey, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// Delete godoc
// @Summary Delete survey
// @Tags Surveys
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/{id} [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activate godoc
// @Summary Activate survey
// @Tags Surveys
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/surveys/{id}/activate [put]
func (h *SurveyHandler) Activate(c *gin.Context) {
	h.toggle(c, h.service.Activate)
}

// Inactivate godoc
// @Summary Inactivate survey
// @Tags Surveys
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/surveys/{id}/inactivate [put]
func (h *SurveyHandler) Inactivate(c *gin.Context) {
	h.toggle(c, h.service.Inactivate)
}

func (h *SurveyHandler) toggle(c *gin.Context, apply func(context.Context, models.Actor, string) (*models.Survey, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	survey, err := apply(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

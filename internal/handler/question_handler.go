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

type questionService interface {
	Create(ctx context.Context, actor models.Actor, surveyID string, req dto.CreateQuestionRequest) (*models.Question, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, bool, error)
	RemoveAll(ctx context.Context, actor models.Actor, surveyID string) (int64, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	ReplaceOptions(ctx context.Context, actor models.Actor, questionID string, req dto.ReplaceOptionsRequest) (*models.Question, error)
	Update(ctx context.Context, actor models.Actor, surveyID, questionID string, req dto.UpdateQuestionRequest) (*models.Question, error)
	UpdateName(ctx context.Context, actor models.Actor, surveyID, questionID string, req dto.UpdateQuestionNameRequest) (*models.Question, error)
	Delete(ctx context.Context, actor models.Actor, surveyID, questionID string) error
}

// QuestionHandler exposes question endpoints. Routes under /api/question share one
// leading path parameter, "id", naming the question for reads and option replacement
// and the owning survey for edits and removal.
type QuestionHandler struct {
	service questionService
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(svc questionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

// Create godoc
// @Summary Add question
// @Description Append a multiple choice or free text question to a survey
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param payload body dto.CreateQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/surveys/questions/{surveyId} [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateQuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.service.Create(c.Request.Context(), actor, c.Param("surveyId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// List godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/surveys/questions/{surveyId} [get]
func (h *QuestionHandler) List(c *gin.Context) {
	questions, hit, err := h.service.ListBySurvey(c.Request.Context(), c.Param("surveyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, questions, nil, middleware.ExtractMeta(c))
}

// RemoveAll godoc
// @Summary Remove all questions
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/questions/{surveyId} [delete]
func (h *QuestionHandler) RemoveAll(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	removed, err := h.service.RemoveAll(c.Request.Context(), actor, c.Param("surveyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "questions removed", gin.H{"removed": removed})
}

// Get godoc
// @Summary Get question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/question/{id}/get [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// ReplaceOptions godoc
// @Summary Replace answer options
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param payload body dto.ReplaceOptionsRequest true "New labels"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/question/{id}/MC [post]
func (h *QuestionHandler) ReplaceOptions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ReplaceOptionsRequest
	if !bindJSON(c, &req, "invalid options payload") {
		return
	}
	question, err := h.service.ReplaceOptions(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Update godoc
// @Summary Update question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param questionId path string true "Question ID"
// @Param payload body dto.UpdateQuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/question/{id}/{questionId} [post]
func (h *QuestionHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateQuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), c.Param("questionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// UpdateName godoc
// @Summary Rename question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param questionId path string true "Question ID"
// @Param payload body dto.UpdateQuestionNameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/question/{id}/{questionId}/updateName [post]
func (h *QuestionHandler) UpdateName(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateQuestionNameRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	question, err := h.service.UpdateName(c.Request.Context(), actor, c.Param("id"), c.Param("questionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete question
// @Description Remove a question and renumber the rest of the survey
// @Tags Questions
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param questionId path string true "Question ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/question/{id}/{questionId} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id"), c.Param("questionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

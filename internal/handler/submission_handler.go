package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/internal/service"
	"github.com/noah-isme/survey-api/pkg/response"
)

type submissionService interface {
	Check(ctx context.Context, actor models.Actor, surveyID string) (dto.CompletionCheckResponse, error)
	Submit(ctx context.Context, actor models.Actor, surveyID string, req dto.SubmissionRequest) (*dto.SubmissionResponse, error)
}

type exportService interface {
	Download(ctx context.Context, actor models.Actor, surveyID string, format service.ExportFormat) (*service.ExportFile, error)
}

// SubmissionHandler exposes respondent and result endpoints of a survey.
type SubmissionHandler struct {
	submissions submissionService
	exports     exportService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions submissionService, exports exportService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, exports: exports}
}

// Check godoc
// @Summary Check completion
// @Description Reports whether the caller already submitted the survey
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /api/surveys/{id}/check [get]
func (h *SubmissionHandler) Check(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.submissions.Check(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Submit godoc
// @Summary Submit answers
// @Description Body maps every question id of the survey to an option index or a text answer
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param payload body map[string]interface{} true "Answers by question id"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /api/surveys/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SubmissionRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	res, err := h.submissions.Submit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Download godoc
// @Summary Download survey result
// @Description Owner-only export of the survey and its aggregates
// @Tags Submissions
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param format query string false "json (default), csv or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /api/surveys/{id}/downloadresult [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Download(c.Request.Context(), actor, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

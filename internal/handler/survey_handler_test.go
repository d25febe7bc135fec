package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/middleware"
	"github.com/noah-isme/survey-api/internal/models"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type fakeSurveyService struct {
	hit       bool
	created   dto.CreateSurveyRequest
	updated   dto.UpdateSurveyRequest
	toggleErr error
	deleted   string
}

func (f *fakeSurveyService) ListActive(ctx context.Context) ([]models.Survey, bool, error) {
	return []models.Survey{{ID: "s1", Status: models.SurveyStatusActive}}, f.hit, nil
}

func (f *fakeSurveyService) ListByOwner(ctx context.Context, actor models.Actor, ownerID string) ([]models.Survey, error) {
	if !actor.Is(ownerID) {
		return nil, appErrors.ErrForbidden
	}
	return []models.Survey{{ID: "s1", OwnerID: ownerID}}, nil
}

func (f *fakeSurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	if id != "s1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
	}
	return &models.Survey{ID: id}, nil
}

func (f *fakeSurveyService) Create(ctx context.Context, actor models.Actor, ownerID string, req dto.CreateSurveyRequest) (*models.Survey, error) {
	f.created = req
	return &models.Survey{ID: "s2", Name: req.Name, OwnerID: ownerID, DateExpire: req.DateExpire, Status: models.SurveyStatusActive}, nil
}

func (f *fakeSurveyService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSurveyRequest) (*models.Survey, error) {
	f.updated = req
	return &models.Survey{ID: id, Status: models.SurveyStatusActive}, nil
}

func (f *fakeSurveyService) Delete(ctx context.Context, actor models.Actor, id string) error {
	f.deleted = id
	return nil
}

func (f *fakeSurveyService) Activate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return &models.Survey{ID: id, Status: models.SurveyStatusActive}, nil
}

func (f *fakeSurveyService) Inactivate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return &models.Survey{ID: id, Status: models.SurveyStatusInactive}, nil
}

func TestSurveyHandlerListActiveReportsCacheHit(t *testing.T) {
	h := NewSurveyHandler(&fakeSurveyService{hit: true})

	c, rec := newContext(http.MethodGet, "/api/surveys", nil, "", nil)
	middleware.WithResponseMeta()(c)
	h.ListActive(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	var surveys []models.Survey
	decodeData(t, rec, &surveys)
	require.Len(t, surveys, 1)
}

func TestSurveyHandlerCreateParsesExpiry(t *testing.T) {
	svc := &fakeSurveyService{}
	h := NewSurveyHandler(svc)

	body := `{"name":"Lunch","dateExpire":"2030-01-02T15:04:05Z"}`
	c, rec := newContext(http.MethodPost, "/api/surveys/by/u1", body, "u1", gin.Params{param("userId", "u1")})
	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created.DateExpire)
	assert.True(t, svc.created.DateExpire.Equal(time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC)))
	var survey models.Survey
	decodeData(t, rec, &survey)
	assert.Equal(t, "Lunch", survey.Name)
}

func TestSurveyHandlerRequiresToken(t *testing.T) {
	h := NewSurveyHandler(&fakeSurveyService{})

	c, rec := newContext(http.MethodPost, "/api/surveys/by/u1", `{"name":"x"}`, "", gin.Params{param("userId", "u1")})
	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/api/surveys/by/u1", nil, "u2", gin.Params{param("userId", "u1")})
	h.ListByOwner(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSurveyHandlerToggleExpired(t *testing.T) {
	h := NewSurveyHandler(&fakeSurveyService{toggleErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "survey has expired")})

	c, rec := newContext(http.MethodPut, "/api/surveys/s1/activate", nil, "u1", gin.Params{param("id", "s1")})
	h.Activate(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PRECONDITION_FAILED", decodeEnvelope(t, rec).Error.Code)
}

func TestSurveyHandlerInactivate(t *testing.T) {
	h := NewSurveyHandler(&fakeSurveyService{})

	c, rec := newContext(http.MethodPut, "/api/surveys/s1/inactivate", nil, "u1", gin.Params{param("id", "s1")})
	h.Inactivate(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var survey models.Survey
	decodeData(t, rec, &survey)
	assert.Equal(t, models.SurveyStatusInactive, survey.Status)
}

func TestSurveyHandlerGetUpdateDelete(t *testing.T) {
	svc := &fakeSurveyService{}
	h := NewSurveyHandler(svc)

	c, rec := newContext(http.MethodGet, "/api/surveys/nope", nil, "", gin.Params{param("id", "nope")})
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(http.MethodPut, "/api/surveys/s1", `{"name":"renamed"}`, "u1", gin.Params{param("id", "s1")})
	h.Update(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated.Name)
	assert.Equal(t, "renamed", *svc.updated.Name)

	c, rec = newContext(http.MethodDelete, "/api/surveys/s1", nil, "u1", gin.Params{param("id", "s1")})
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, statusOf(c, rec))
	assert.Equal(t, "s1", svc.deleted)
}

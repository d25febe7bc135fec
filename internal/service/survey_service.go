package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/cache"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type surveyReader interface {
	FindByID(ctx context.Context, id string) (*models.Survey, error)
}

type surveyRepository interface {
	surveyReader
	Create(ctx context.Context, survey *models.Survey) error
	ListActive(ctx context.Context) ([]models.Survey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error)
	Update(ctx context.Context, survey *models.Survey) error
	SetManualStatus(ctx context.Context, id string, status models.SurveyStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

// findSurvey loads a survey, mapping malformed and unknown ids to NOT_FOUND.
func findSurvey(ctx context.Context, repo surveyReader, id string) (*models.Survey, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
	}
	survey, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load survey")
	}
	return survey, nil
}

// findOwnedSurvey loads a survey and requires actor to own it.
func findOwnedSurvey(ctx context.Context, repo surveyReader, actor models.Actor, id string) (*models.Survey, error) {
	survey, err := findSurvey(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(survey.OwnerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return survey, nil
}

// SurveyService manages survey metadata and its lifecycle.
type SurveyService struct {
	repo      surveyRepository
	audit     auditRecorder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSurveyService constructs a SurveyService.
func NewSurveyService(repo surveyRepository, audit auditRecorder, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SurveyService{
		repo:      repo,
		audit:     audit,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// expire flips overdue surveys to EXPIRED before a listing is served.
func (s *SurveyService) expire(ctx context.Context) error {
	ids, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to expire surveys")
	}
	if len(ids) > 0 {
		s.metrics.AddExpiredSurveys(len(ids))
		s.cache.Invalidate(ctx, cache.ActiveSurveysKey())
		s.logger.Info("surveys expired", zap.Strings("survey_ids", ids))
	}
	return nil
}

// ListActive returns every ACTIVE survey after the expiry scan. The boolean reports a cache hit.
func (s *SurveyService) ListActive(ctx context.Context) ([]models.Survey, bool, error) {
	if err := s.expire(ctx); err != nil {
		return nil, false, err
	}

	var cached []models.Survey
	if s.cache.Get(ctx, cache.ActiveSurveysKey(), &cached) {
		return cached, true, nil
	}

	surveys, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list surveys")
	}
	s.cache.Set(ctx, cache.ActiveSurveysKey(), surveys, 0)
	return surveys, false, nil
}

// ListByOwner returns the surveys of ownerID after the expiry scan. Only the owner may list them.
func (s *SurveyService) ListByOwner(ctx context.Context, actor models.Actor, ownerID string) ([]models.Survey, error) {
	if !actor.Is(ownerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.expire(ctx); err != nil {
		return nil, err
	}
	surveys, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list surveys")
	}
	return surveys, nil
}

// Get returns a single survey.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	return findSurvey(ctx, s.repo, id)
}

// GetOwned returns a survey the actor owns.
func (s *SurveyService) GetOwned(ctx context.Context, actor models.Actor, id string) (*models.Survey, error) {
	return findOwnedSurvey(ctx, s.repo, actor, id)
}

// Create stores a new survey owned by ownerID. Only the owner may create on their behalf.
func (s *SurveyService) Create(ctx context.Context, actor models.Actor, ownerID string, req dto.CreateSurveyRequest) (*models.Survey, error) {
	if !actor.Is(ownerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}

	survey := &models.Survey{
		Name:       req.Name,
		OwnerID:    ownerID,
		DateExpire: utcPtr(req.DateExpire),
		Status:     models.StatusForExpiry(req.DateExpire, s.now()),
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create survey")
	}

	s.cache.Invalidate(ctx, cache.ActiveSurveysKey())
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSurveyCreate, "surveys", survey.ID, nil, survey)
	return survey, nil
}

// Update renames a survey and/or moves its expiration date. A new expiration date
// re-derives the status, so an EXPIRED survey given a future date becomes ACTIVE again.
func (s *SurveyService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSurveyRequest) (*models.Survey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}
	survey, err := findOwnedSurvey(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	before := *survey

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "survey name cannot be empty")
		}
		survey.Name = name
	}
	if req.DateExpire != nil {
		survey.DateExpire = utcPtr(req.DateExpire)
		survey.Status = models.StatusForExpiry(survey.DateExpire, s.now())
	}

	if err := s.repo.Update(ctx, survey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update survey")
	}

	s.cache.Invalidate(ctx, cache.ActiveSurveysKey())
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSurveyUpdate, "surveys", survey.ID, before, survey)
	return survey, nil
}

// Delete removes a survey and its questions. Completion ledger entries are kept.
func (s *SurveyService) Delete(ctx context.Context, actor models.Actor, id string) error {
	survey, err := findOwnedSurvey(ctx, s.repo, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete survey")
	}

	s.cache.Invalidate(ctx, cache.ActiveSurveysKey())
	s.cache.InvalidatePattern(ctx, cache.SurveyPattern(id))
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSurveyDelete, "surveys", id, survey, nil)
	return nil
}

// Activate sets an owned survey to ACTIVE.
func (s *SurveyService) Activate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error) {
	return s.setManualStatus(ctx, actor, id, models.SurveyStatusActive)
}

// Inactivate sets an owned survey to INACTIVE.
func (s *SurveyService) Inactivate(ctx context.Context, actor models.Actor, id string) (*models.Survey, error) {
	return s.setManualStatus(ctx, actor, id, models.SurveyStatusInactive)
}

func (s *SurveyService) setManualStatus(ctx context.Context, actor models.Actor, id string, status models.SurveyStatus) (*models.Survey, error) {
	survey, err := findOwnedSurvey(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if survey.Status == models.SurveyStatusExpired || survey.ExpiredAt(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "survey has expired; set a future expiration date to reopen it")
	}

	changed, err := s.repo.SetManualStatus(ctx, id, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update survey status")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "survey has expired; set a future expiration date to reopen it")
	}

	previous := survey.Status
	survey.Status = status
	s.cache.Invalidate(ctx, cache.ActiveSurveysKey())
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSurveyStatus, "surveys", id, map[string]models.SurveyStatus{"status": previous}, map[string]models.SurveyStatus{"status": status})
	return survey, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/cache"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type surveyFixture struct {
	store   *fakeStore
	audit   *fakeUserRepo
	cache   *fakeCacheRepo
	metrics *MetricsService
	svc     *SurveyService
	now     time.Time
}

func newSurveyFixture(t *testing.T) *surveyFixture {
	t.Helper()
	f := &surveyFixture{
		store:   newFakeStore(),
		audit:   newFakeUserRepo(),
		cache:   newFakeCacheRepo(),
		metrics: NewMetricsService(),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	cacheSvc := NewCacheService(f.cache, f.metrics, time.Minute, zap.NewNop(), true)
	f.svc = NewSurveyService(f.store, f.audit, cacheSvc, f.metrics, nil, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestSurveyServiceListActiveExpiresOverdueFirst(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	overdue := f.store.addSurvey(models.Survey{Name: "old", OwnerID: owner, DateExpire: timePtr(f.now.Add(-time.Minute))})
	paused := f.store.addSurvey(models.Survey{Name: "paused", OwnerID: owner, Status: models.SurveyStatusInactive, DateExpire: timePtr(f.now.Add(-time.Hour))})
	open := f.store.addSurvey(models.Survey{Name: "open", OwnerID: owner, DateExpire: timePtr(f.now.Add(time.Hour))})
	f.store.addSurvey(models.Survey{Name: "forever", OwnerID: owner})

	surveys, hit, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, surveys, 2)
	for _, s := range surveys {
		assert.NotEqual(t, overdue.ID, s.ID)
	}
	assert.Equal(t, models.SurveyStatusExpired, f.store.surveys[overdue.ID].Status)
	assert.Equal(t, models.SurveyStatusExpired, f.store.surveys[paused.ID].Status)
	assert.Equal(t, models.SurveyStatusActive, f.store.surveys[open.ID].Status)
	assert.Equal(t, uint64(2), f.metrics.Snapshot().SurveysExpired)
}

func TestSurveyServiceListActiveUsesCacheUntilExpiry(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	f.store.addSurvey(models.Survey{Name: "soon", OwnerID: owner, DateExpire: timePtr(f.now.Add(time.Minute))})

	_, hit, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, f.cache.has(cache.ActiveSurveysKey()))

	surveys, hit, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, surveys, 1)

	f.now = f.now.Add(2 * time.Minute)
	surveys, hit, err = f.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, surveys)
}

func TestSurveyServiceListByOwnerRequiresSelf(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	f.store.addSurvey(models.Survey{Name: "mine", OwnerID: owner, DateExpire: timePtr(f.now.Add(-time.Hour))})

	_, err := f.svc.ListByOwner(context.Background(), models.Actor{UserID: uuid.NewString()}, owner)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	surveys, err := f.svc.ListByOwner(context.Background(), models.Actor{UserID: owner}, owner)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, models.SurveyStatusExpired, surveys[0].Status)
	assert.Equal(t, 1, f.store.expireCalls)
}

func TestSurveyServiceCreate(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	actor := models.Actor{UserID: owner}

	survey, err := f.svc.Create(context.Background(), actor, owner, dto.CreateSurveyRequest{Name: "  Lunch  "})
	require.NoError(t, err)
	assert.Equal(t, "Lunch", survey.Name)
	assert.Equal(t, models.SurveyStatusActive, survey.Status)
	assert.Contains(t, f.audit.actions(), models.AuditActionSurveyCreate)

	_, err = f.svc.Create(context.Background(), actor, owner, dto.CreateSurveyRequest{Name: "   "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(context.Background(), models.Actor{UserID: uuid.NewString()}, owner, dto.CreateSurveyRequest{Name: "x"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSurveyServiceUpdateRevivesExpiredSurvey(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	survey := f.store.addSurvey(models.Survey{Name: "old", OwnerID: owner, Status: models.SurveyStatusExpired, DateExpire: timePtr(f.now.Add(-time.Hour))})

	updated, err := f.svc.Update(context.Background(), models.Actor{UserID: owner}, survey.ID, dto.UpdateSurveyRequest{DateExpire: timePtr(f.now.Add(24 * time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusActive, updated.Status)
	assert.Equal(t, models.SurveyStatusActive, f.store.surveys[survey.ID].Status)

	updated, err = f.svc.Update(context.Background(), models.Actor{UserID: owner}, survey.ID, dto.UpdateSurveyRequest{DateExpire: timePtr(f.now.Add(-time.Second))})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusExpired, updated.Status)
}

func TestSurveyServiceUpdateNameKeepsStatus(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	survey := f.store.addSurvey(models.Survey{Name: "old", OwnerID: owner, Status: models.SurveyStatusInactive})

	updated, err := f.svc.Update(context.Background(), models.Actor{UserID: owner}, survey.ID, dto.UpdateSurveyRequest{Name: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, models.SurveyStatusInactive, updated.Status)
	assert.Equal(t, owner, f.store.surveys[survey.ID].OwnerID)
}

func TestSurveyServiceToggleStatus(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	actor := models.Actor{UserID: owner}
	survey := f.store.addSurvey(models.Survey{Name: "s", OwnerID: owner})

	updated, err := f.svc.Inactivate(context.Background(), actor, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusInactive, updated.Status)

	updated, err = f.svc.Activate(context.Background(), actor, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SurveyStatusActive, updated.Status)

	_, err = f.svc.Activate(context.Background(), models.Actor{UserID: uuid.NewString()}, survey.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSurveyServiceToggleExpiredRejected(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	expired := f.store.addSurvey(models.Survey{Name: "s", OwnerID: owner, Status: models.SurveyStatusExpired})
	overdue := f.store.addSurvey(models.Survey{Name: "t", OwnerID: owner, DateExpire: timePtr(f.now.Add(-time.Second))})

	_, err := f.svc.Activate(context.Background(), models.Actor{UserID: owner}, expired.ID)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Inactivate(context.Background(), models.Actor{UserID: owner}, overdue.ID)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestSurveyServiceDeleteCascadesQuestionsOnly(t *testing.T) {
	f := newSurveyFixture(t)
	owner := uuid.NewString()
	survey := f.store.addSurvey(models.Survey{Name: "s", OwnerID: owner})
	f.store.addQuestion(models.Question{SurveyID: survey.ID, Type: models.QuestionTypeFreeText, Name: "why"})
	f.store.completions[ledgerKey(survey.ID, "u2")] = true

	require.NoError(t, f.svc.Delete(context.Background(), models.Actor{UserID: owner}, survey.ID))
	assert.Empty(t, f.store.surveys)
	assert.Empty(t, f.store.questions)
	assert.True(t, f.store.completions[ledgerKey(survey.ID, "u2")])

	_, err := f.svc.Get(context.Background(), survey.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSurveyServiceGetMalformedID(t *testing.T) {
	f := newSurveyFixture(t)
	_, err := f.svc.Get(context.Background(), "abc")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

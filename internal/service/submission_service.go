package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/internal/repository"
	"github.com/noah-isme/survey-api/pkg/cache"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type questionLister interface {
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error)
}

type completionRepository interface {
	Exists(ctx context.Context, surveyID, userID string) (bool, error)
	RecordSubmission(ctx context.Context, plan models.SubmissionPlan) (*models.SurveyCompletion, error)
}

// SubmissionService validates respondent answers and folds them into question aggregates.
type SubmissionService struct {
	surveys     surveyReader
	questions   questionLister
	completions completionRepository
	audit       auditRecorder
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(surveys surveyReader, questions questionLister, completions completionRepository, audit auditRecorder, cacheSvc *CacheService, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		surveys:     surveys,
		questions:   questions,
		completions: completions,
		audit:       audit,
		cache:       cacheSvc,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Check reports whether the actor already completed the survey.
func (s *SubmissionService) Check(ctx context.Context, actor models.Actor, surveyID string) (dto.CompletionCheckResponse, error) {
	if actor.UserID == "" {
		return dto.CompletionCheckResponse{}, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if _, err := findSurvey(ctx, s.surveys, surveyID); err != nil {
		return dto.CompletionCheckResponse{}, err
	}
	done, err := s.completions.Exists(ctx, surveyID, actor.UserID)
	if err != nil {
		return dto.CompletionCheckResponse{}, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check completion")
	}
	if done {
		return dto.CompletionCheckResponse{Answer: dto.CompletionYes}, nil
	}
	return dto.CompletionCheckResponse{Answer: dto.CompletionNo}, nil
}

// Submit records one complete set of answers for the actor. Either every tally and
// response change plus the ledger entry is stored, or nothing is.
func (s *SubmissionService) Submit(ctx context.Context, actor models.Actor, surveyID string, req dto.SubmissionRequest) (*dto.SubmissionResponse, error) {
	start := time.Now()
	resp, outcome, err := s.submit(ctx, actor, surveyID, req)
	s.metrics.ObserveSubmission(outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.SurveyQuestionsKey(surveyID))
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSurveySubmit, "surveys", surveyID, nil, map[string]int{"questions": resp.Questions})
	return resp, nil
}

func (s *SubmissionService) submit(ctx context.Context, actor models.Actor, surveyID string, req dto.SubmissionRequest) (*dto.SubmissionResponse, string, error) {
	if actor.UserID == "" {
		return nil, SubmissionInvalid, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	survey, err := findSurvey(ctx, s.surveys, surveyID)
	if err != nil {
		return nil, SubmissionInvalid, err
	}
	if !survey.AcceptsSubmissions(s.now()) {
		return nil, SubmissionInvalid, appErrors.Clone(appErrors.ErrPreconditionFailed, "survey is not accepting submissions")
	}

	done, err := s.completions.Exists(ctx, surveyID, actor.UserID)
	if err != nil {
		return nil, SubmissionFailed, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check completion")
	}
	if done {
		return nil, SubmissionDuplicate, appErrors.Clone(appErrors.ErrDuplicateSubmission, "")
	}

	questions, err := s.questions.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, SubmissionFailed, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load questions")
	}
	if err := ValidateCompleteness(questions, req); err != nil {
		return nil, SubmissionInvalid, err
	}
	plan, err := BuildPlan(surveyID, actor.UserID, questions, req)
	if err != nil {
		return nil, SubmissionInvalid, err
	}

	if _, err := s.completions.RecordSubmission(ctx, plan); err != nil {
		var writeErr *repository.QuestionWriteError
		switch {
		case errors.Is(err, repository.ErrAlreadyCompleted):
			return nil, SubmissionDuplicate, appErrors.Clone(appErrors.ErrDuplicateSubmission, "")
		case errors.As(err, &writeErr):
			s.logger.Error("submission aborted", zap.String("survey_id", surveyID), zap.String("question_id", writeErr.QuestionID), zap.Error(writeErr.Err))
			return nil, SubmissionFailed, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, fmt.Sprintf("failed to record answer for question %s", writeErr.QuestionID))
		default:
			return nil, SubmissionFailed, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record submission")
		}
	}

	return &dto.SubmissionResponse{SurveyID: surveyID, Questions: len(plan.Steps), Message: "survey completed"}, SubmissionAccepted, nil
}

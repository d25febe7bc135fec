package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/internal/repository"
	"github.com/noah-isme/survey-api/pkg/cache"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type questionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Question, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error)
	ExistsByName(ctx context.Context, surveyID, name, excludeID string) (bool, error)
	Update(ctx context.Context, question *models.Question) error
	UpdateName(ctx context.Context, id, name string) error
	UpdatePossibleAnswers(ctx context.Context, id string, answers []string) error
	Delete(ctx context.Context, surveyID, questionID string) error
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
}

// QuestionService manages the ordered questions of a survey.
type QuestionService struct {
	surveys   surveyReader
	repo      questionRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(surveys surveyReader, repo questionRepository, audit auditRecorder, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuestionService{
		surveys:   surveys,
		repo:      repo,
		audit:     audit,
		cache:     cacheSvc,
		validator: validate,
		logger:    logger,
	}
}

// validateOptions enforces the answer count bounds and that labels match it one to one.
func validateOptions(answerNum *int, labels []string) error {
	if answerNum == nil {
		return appErrors.Clone(appErrors.ErrValidation, "answerNum is required for multiple choice questions")
	}
	if *answerNum < models.MinAnswerNum || *answerNum > models.MaxAnswerNum {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("answerNum must be between %d and %d", models.MinAnswerNum, models.MaxAnswerNum))
	}
	if len(labels) != *answerNum {
		return appErrors.Clone(appErrors.ErrValidation, "possibleAnswers must contain exactly answerNum entries")
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "possibleAnswers cannot contain empty labels")
		}
		if _, dup := seen[label]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate answer option %q", label))
		}
		seen[label] = struct{}{}
	}
	return nil
}

func (s *QuestionService) findQuestion(ctx context.Context, id string) (*models.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
	}
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load question")
	}
	return question, nil
}

// findOwnedQuestion loads a question of surveyID whose survey the actor owns.
func (s *QuestionService) findOwnedQuestion(ctx context.Context, actor models.Actor, surveyID, questionID string) (*models.Question, error) {
	if _, err := findOwnedSurvey(ctx, s.surveys, actor, surveyID); err != nil {
		return nil, err
	}
	question, err := s.findQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.SurveyID != surveyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
	}
	return question, nil
}

func (s *QuestionService) ensureUniqueName(ctx context.Context, surveyID, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, surveyID, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check question name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "a question with this name already exists in the survey")
	}
	return nil
}

func (s *QuestionService) writeError(err error, action string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "question not found")
	case errors.Is(err, repository.ErrDuplicateName):
		return appErrors.Clone(appErrors.ErrConflict, "a question with this name already exists in the survey")
	default:
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to "+action)
	}
}

func (s *QuestionService) invalidate(ctx context.Context, surveyID string) {
	s.cache.Invalidate(ctx, cache.SurveyQuestionsKey(surveyID))
}

// Create appends a question to an owned survey.
func (s *QuestionService) Create(ctx context.Context, actor models.Actor, surveyID string, req dto.CreateQuestionRequest) (*models.Question, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if _, err := findOwnedSurvey(ctx, s.surveys, actor, surveyID); err != nil {
		return nil, err
	}

	question := &models.Question{
		SurveyID:        surveyID,
		Type:            models.QuestionType(req.QuestionType),
		Name:            req.Name,
		PossibleAnswers: pq.StringArray{},
	}
	if question.IsMultipleChoice() {
		if err := validateOptions(req.AnswerNum, req.PossibleAnswers); err != nil {
			return nil, err
		}
		n := *req.AnswerNum
		question.AnswerNum = &n
		question.PossibleAnswers = append(pq.StringArray{}, req.PossibleAnswers...)
	} else if req.AnswerNum != nil || len(req.PossibleAnswers) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "free text questions do not take answer options")
	}

	if err := s.ensureUniqueName(ctx, surveyID, question.Name, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, question); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, s.writeError(err, "create question")
	}

	s.invalidate(ctx, surveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionCreate, "questions", question.ID, nil, question)
	return question, nil
}

// ListBySurvey returns the questions of a survey ordered by position. The boolean reports a cache hit.
func (s *QuestionService) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, bool, error) {
	if _, err := findSurvey(ctx, s.surveys, surveyID); err != nil {
		return nil, false, err
	}

	key := cache.SurveyQuestionsKey(surveyID)
	var cached []models.Question
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	questions, err := s.repo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list questions")
	}
	s.cache.Set(ctx, key, questions, 0)
	return questions, false, nil
}

// RemoveAll deletes every question of an owned survey and returns how many were removed.
func (s *QuestionService) RemoveAll(ctx context.Context, actor models.Actor, surveyID string) (int64, error) {
	if _, err := findOwnedSurvey(ctx, s.surveys, actor, surveyID); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteBySurvey(ctx, surveyID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete questions")
	}
	s.invalidate(ctx, surveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionDelete, "surveys", surveyID, map[string]int64{"questions": removed}, nil)
	return removed, nil
}

// Get returns a single question.
func (s *QuestionService) Get(ctx context.Context, id string) (*models.Question, error) {
	return s.findQuestion(ctx, id)
}

// ReplaceOptions swaps the option labels of a multiple choice question, keeping its answer count.
func (s *QuestionService) ReplaceOptions(ctx context.Context, actor models.Actor, questionID string, req dto.ReplaceOptionsRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid options payload")
	}
	question, err := s.findQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if _, err := findOwnedSurvey(ctx, s.surveys, actor, question.SurveyID); err != nil {
		return nil, err
	}
	if !question.IsMultipleChoice() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only multiple choice questions have answer options")
	}
	if err := validateOptions(question.AnswerNum, req.NewPossibleAnswers); err != nil {
		return nil, err
	}

	before := append(pq.StringArray{}, question.PossibleAnswers...)
	if err := s.repo.UpdatePossibleAnswers(ctx, question.ID, req.NewPossibleAnswers); err != nil {
		return nil, s.writeError(err, "update answer options")
	}
	question.PossibleAnswers = append(pq.StringArray{}, req.NewPossibleAnswers...)

	s.invalidate(ctx, question.SurveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionUpdate, "questions", question.ID, map[string][]string{"possibleAnswers": before}, map[string][]string{"possibleAnswers": question.PossibleAnswers})
	return question, nil
}

// Update rewrites a question. Free text questions only accept a new name; multiple choice
// questions may also change answerNum and labels, which must stay consistent with each other.
func (s *QuestionService) Update(ctx context.Context, actor models.Actor, surveyID, questionID string, req dto.UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	question, err := s.findOwnedQuestion(ctx, actor, surveyID, questionID)
	if err != nil {
		return nil, err
	}
	before := *question

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "question name cannot be empty")
		}
		if name != question.Name {
			if err := s.ensureUniqueName(ctx, surveyID, name, question.ID); err != nil {
				return nil, err
			}
		}
		question.Name = name
	}

	if question.IsMultipleChoice() {
		if req.AnswerNum != nil {
			n := *req.AnswerNum
			question.AnswerNum = &n
		}
		if req.PossibleAnswers != nil {
			question.PossibleAnswers = append(pq.StringArray{}, req.PossibleAnswers...)
		}
		if err := validateOptions(question.AnswerNum, question.PossibleAnswers); err != nil {
			return nil, err
		}
	} else if req.AnswerNum != nil || len(req.PossibleAnswers) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "free text questions do not take answer options")
	}

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, s.writeError(err, "update question")
	}
	for i := question.Options(); question.IsMultipleChoice() && i < len(question.Tally); i++ {
		question.Tally[i] = 0
	}

	s.invalidate(ctx, surveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionUpdate, "questions", question.ID, before, question)
	return question, nil
}

// UpdateName renames a question of an owned survey.
func (s *QuestionService) UpdateName(ctx context.Context, actor models.Actor, surveyID, questionID string, req dto.UpdateQuestionNameRequest) (*models.Question, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	question, err := s.findOwnedQuestion(ctx, actor, surveyID, questionID)
	if err != nil {
		return nil, err
	}
	if req.Name == question.Name {
		return question, nil
	}
	if err := s.ensureUniqueName(ctx, surveyID, req.Name, question.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateName(ctx, question.ID, req.Name); err != nil {
		return nil, s.writeError(err, "rename question")
	}

	previous := question.Name
	question.Name = req.Name
	s.invalidate(ctx, surveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionUpdate, "questions", question.ID, map[string]string{"name": previous}, map[string]string{"name": question.Name})
	return question, nil
}

// Delete removes a question and shifts every later question of the survey up by one position.
func (s *QuestionService) Delete(ctx context.Context, actor models.Actor, surveyID, questionID string) error {
	question, err := s.findOwnedQuestion(ctx, actor, surveyID, questionID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, surveyID, questionID); err != nil {
		return s.writeError(err, "delete question")
	}
	s.invalidate(ctx, surveyID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionQuestionDelete, "questions", questionID, question, nil)
	return nil
}

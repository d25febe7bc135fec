package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/internal/repository"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type fakeUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	revokedUsers  []string
	findErr       error
	updateErr     error
	lastLogin     bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) match(pred func(*models.User) bool) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if pred(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.match(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.match(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUserRepo) FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	return f.match(func(u *models.User) bool { return u.Username == username && strings.EqualFold(u.Email, email) })
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.match(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	u, err := f.FindByUsername(ctx, username)
	return err == nil && u.ID != excludeID, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	u, err := f.FindByEmail(ctx, email)
	return err == nil && u.ID != excludeID, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if u, ok := f.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	f.lastLogin = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	f.revokedUsers = append(f.revokedUsers, userID)
	for _, token := range f.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range f.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func (f *fakeUserRepo) actions() []string {
	out := make([]string, 0, len(f.auditLogs))
	for _, l := range f.auditLogs {
		out = append(out, l.Action)
	}
	return out
}

// fakeStore backs surveys, questions and the completion ledger with in-memory maps
// that honour the same atomicity rules as the SQL repositories.
type fakeStore struct {
	mu          sync.Mutex
	surveys     map[string]*models.Survey
	questions   map[string]*models.Question
	completions map[string]bool
	expireCalls int
	failStep    string
	storageErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{surveys: map[string]*models.Survey{}, questions: map[string]*models.Question{}, completions: map[string]bool{}}
}

func (f *fakeStore) addSurvey(s models.Survey) *models.Survey {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = models.SurveyStatusActive
	}
	f.surveys[s.ID] = &s
	return &s
}

func (f *fakeStore) addQuestion(q models.Question) *models.Question {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Tally == nil {
		q.Tally = models.EmptyTally()
	}
	if q.Responses == nil {
		q.Responses = pq.StringArray{}
	}
	q.Order = len(f.questionsOf(q.SurveyID)) + 1
	f.questions[q.ID] = &q
	return &q
}

func (f *fakeStore) questionsOf(surveyID string) []models.Question {
	var out []models.Question
	for _, q := range f.questions {
		if q.SurveyID == surveyID {
			copied := *q
			copied.Tally = append(pq.Int64Array{}, q.Tally...)
			copied.Responses = append(pq.StringArray{}, q.Responses...)
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// survey repository

func (f *fakeStore) Create(ctx context.Context, survey *models.Survey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	copied := *survey
	f.surveys[survey.ID] = &copied
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.surveys[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) ListActive(ctx context.Context) ([]models.Survey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Survey, 0)
	for _, s := range f.surveys {
		if s.Status == models.SurveyStatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Survey, 0)
	for _, s := range f.surveys {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, survey *models.Survey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.surveys[survey.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Name = survey.Name
	existing.DateExpire = survey.DateExpire
	existing.Status = survey.Status
	return nil
}

func (f *fakeStore) SetManualStatus(ctx context.Context, id string, status models.SurveyStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.surveys[id]
	if !ok || s.Status == models.SurveyStatusExpired {
		return false, nil
	}
	s.Status = status
	return true, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.surveys[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.surveys, id)
	for qid, q := range f.questions {
		if q.SurveyID == id {
			delete(f.questions, qid)
		}
	}
	return nil
}

func (f *fakeStore) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireCalls++
	var ids []string
	for _, s := range f.surveys {
		if s.ExpiredAt(now) && s.Status != models.SurveyStatusExpired {
			s.Status = models.SurveyStatusExpired
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// questionStore adapts fakeStore to the question repository contract.
type questionStore struct{ *fakeStore }

func (q questionStore) Create(ctx context.Context, question *models.Question) error {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.surveys[question.SurveyID]; !ok {
		return sql.ErrNoRows
	}
	for _, existing := range f.questions {
		if existing.SurveyID == question.SurveyID && existing.Name == question.Name {
			return repository.ErrDuplicateName
		}
	}
	stored := f.addQuestion(*question)
	*question = *stored
	return nil
}

func (q questionStore) FindByID(ctx context.Context, id string) (*models.Question, error) {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.questions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *existing
	return &copied, nil
}

func (q questionStore) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	return append(make([]models.Question, 0), f.questionsOf(surveyID)...), nil
}

func (q questionStore) ExistsByName(ctx context.Context, surveyID, name, excludeID string) (bool, error) {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.questions {
		if existing.SurveyID == surveyID && existing.Name == name && existing.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (q questionStore) Update(ctx context.Context, question *models.Question) error {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.questions[question.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Name = question.Name
	existing.AnswerNum = question.AnswerNum
	existing.PossibleAnswers = question.PossibleAnswers
	for i := question.Options(); i < len(existing.Tally); i++ {
		existing.Tally[i] = 0
	}
	return nil
}

func (q questionStore) UpdateName(ctx context.Context, id, name string) error {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.questions[id]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Name = name
	return nil
}

func (q questionStore) UpdatePossibleAnswers(ctx context.Context, id string, answers []string) error {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.questions[id]
	if !ok || !existing.IsMultipleChoice() {
		return sql.ErrNoRows
	}
	existing.PossibleAnswers = answers
	return nil
}

func (q questionStore) Delete(ctx context.Context, surveyID, questionID string) error {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.questions[questionID]
	if !ok || existing.SurveyID != surveyID {
		return sql.ErrNoRows
	}
	delete(f.questions, questionID)
	for _, other := range f.questions {
		if other.SurveyID == surveyID && other.Order > existing.Order {
			other.Order--
		}
	}
	return nil
}

func (q questionStore) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	f := q.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, existing := range f.questions {
		if existing.SurveyID == surveyID {
			delete(f.questions, id)
			n++
		}
	}
	return n, nil
}

// ledgerStore adapts fakeStore to the completion repository contract.
type ledgerStore struct{ *fakeStore }

func ledgerKey(surveyID, userID string) string { return surveyID + "/" + userID }

func (l ledgerStore) Exists(ctx context.Context, surveyID, userID string) (bool, error) {
	f := l.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completions[ledgerKey(surveyID, userID)], nil
}

func (l ledgerStore) RecordSubmission(ctx context.Context, plan models.SubmissionPlan) (*models.SurveyCompletion, error) {
	f := l.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(plan.SurveyID, plan.UserID)
	if f.completions[key] {
		return nil, repository.ErrAlreadyCompleted
	}
	for _, step := range plan.Steps {
		if step.QuestionID == f.failStep {
			return nil, &repository.QuestionWriteError{QuestionID: step.QuestionID, Err: errors.New("write failed")}
		}
		if _, ok := f.questions[step.QuestionID]; !ok {
			return nil, &repository.QuestionWriteError{QuestionID: step.QuestionID, Err: sql.ErrNoRows}
		}
	}
	for _, step := range plan.Steps {
		q := f.questions[step.QuestionID]
		if step.Type == models.QuestionTypeMultipleChoice {
			q.Tally[step.Option]++
		} else {
			q.Responses = append(q.Responses, step.Response)
		}
	}
	f.completions[key] = true
	return &models.SurveyCompletion{ID: uuid.NewString(), SurveyID: plan.SurveyID, UserID: plan.UserID, CompletedAt: time.Now().UTC()}, nil
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deleted []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.Survey:
		*d = value.([]models.Survey)
	case *[]models.Question:
		*d = value.([]models.Question)
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCacheRepo) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
			f.deleted = append(f.deleted, k)
		}
	}
	return nil
}

func (f *fakeCacheRepo) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/survey-api/internal/handler"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/internal/service"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "u1-token" {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: "u1"}, nil
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	h := Handlers{
		Auth:       handler.NewAuthHandler(nil),
		Users:      handler.NewUserHandler(nil),
		Surveys:    handler.NewSurveyHandler(nil),
		Questions:  handler.NewQuestionHandler(nil),
		Submission: handler.NewSubmissionHandler(nil, nil),
		Metrics:    handler.NewMetricsHandler(metrics, nil),
	}
	return Wire(h, Options{Tokens: stubTokens{}, Observer: metrics, EnableMetrics: true})
}

func do(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestWireOperationalRoutes(t *testing.T) {
	r := newEngine(t)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", ""))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", ""))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/docs/index.html", ""))
}

func TestWireProtectsWrites(t *testing.T) {
	r := newEngine(t)
	protected := []struct{ method, path string }{
		{http.MethodPost, "/auth/signout"},
		{http.MethodGet, "/auth/me"},
		{http.MethodPut, "/api/users/u1"},
		{http.MethodPost, "/api/surveys/by/u1"},
		{http.MethodPut, "/api/surveys/s1"},
		{http.MethodPost, "/api/surveys/s1"},
		{http.MethodDelete, "/api/surveys/s1"},
		{http.MethodPut, "/api/surveys/s1/activate"},
		{http.MethodPost, "/api/surveys/s1/submit"},
		{http.MethodGet, "/api/surveys/s1/check"},
		{http.MethodGet, "/api/surveys/s1/downloadresult"},
		{http.MethodPost, "/api/surveys/questions/s1"},
		{http.MethodDelete, "/api/surveys/questions/s1"},
		{http.MethodPost, "/api/question/q1/MC"},
		{http.MethodPost, "/api/question/s1/q1"},
		{http.MethodPost, "/api/question/s1/q1/updateName"},
		{http.MethodDelete, "/api/question/s1/q1"},
	}
	for _, route := range protected {
		assert.Equal(t, http.StatusUnauthorized, do(r, route.method, route.path, ""), route.method+" "+route.path)
	}
}

func TestWireSelfOnlyRoutes(t *testing.T) {
	r := newEngine(t)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPut, "/api/users/u2", "u1-token"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/api/users/u2", "u1-token"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/users/u2/updatepassword", "u1-token"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/surveys/by/u2", "u1-token"))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/surveys/by/u2", "u1-token"))
}

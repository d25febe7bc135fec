package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-api/internal/middleware"
	"github.com/noah-isme/survey-api/internal/models"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *envelopeError         `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

// newContext builds a gin context for a handler call. A non-empty userID attaches claims.
func newContext(method, target string, body interface{}, userID string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("User-Agent", "handler-test")
	c.Params = params
	if userID != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Username: "user-" + userID})
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func param(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}


// statusOf flushes a status-only response so the recorder reflects it.
func statusOf(c *gin.Context, rec *httptest.ResponseRecorder) int {
	c.Writer.WriteHeaderNow()
	return rec.Code
}

package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

func TestErrorRendersTypedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrDuplicateSubmission, ""))

	require.Equal(t, http.StatusConflict, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "DUPLICATE_SUBMISSION", env.Error.Code)
	assert.Empty(t, c.Errors)
}

func TestErrorRecordsServerFailuresOnContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}

func TestAttachmentSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "survey_result.json", "application/json", []byte(`{}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=survey_result.json", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestMessageAddsMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Message(c, "Survey Activated Successfully.", nil)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Survey Activated Successfully.", env.Meta["message"])
}

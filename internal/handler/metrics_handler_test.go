package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	h := NewMetricsHandler(service.NewMetricsService(), map[string]HealthCheck{"postgres": ok})
	c, rec := newContext(http.MethodGet, "/ready", nil, "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewMetricsHandler(service.NewMetricsService(), map[string]HealthCheck{"postgres": ok, "redis": down})
	c, rec = newContext(http.MethodGet, "/ready", nil, "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "connection refused", body.Checks["redis"])
	assert.Equal(t, "ok", body.Checks["postgres"])
}

func TestMetricsHandlerPrometheusAndSnapshot(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveSubmission(service.SubmissionAccepted, 0)
	h := NewMetricsHandler(metrics, nil)

	c, rec := newContext(http.MethodGet, "/metrics", nil, "", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "survey_submissions_total")

	c, rec = newContext(http.MethodGet, "/metrics/summary", nil, "", nil)
	h.Snapshot(c)
	var snapshot map[string]interface{}
	decodeData(t, rec, &snapshot)
	assert.Equal(t, float64(1), snapshot["submissions_accepted"])

	c, rec = newContext(http.MethodGet, "/health", nil, "", nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

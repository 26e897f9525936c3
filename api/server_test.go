package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/crop-advisor/api/handlers"
	"github.com/OldStager01/crop-advisor/internal/auth"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/scheduler"
	"github.com/OldStager01/crop-advisor/pkg/config"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

type stubRecommender struct{}

func (stubRecommender) Recommend(context.Context, models.Features) (*models.SoilRecommendation, error) {
	return &models.SoilRecommendation{}, nil
}

func (stubRecommender) Seasonal(context.Context, string, string) (*models.SeasonalRecommendation, error) {
	return &models.SeasonalRecommendation{}, nil
}

func (stubRecommender) Demand(context.Context, string) (*models.DemandForecast, error) {
	return &models.DemandForecast{}, nil
}

func (stubRecommender) Districts() []string       { return []string{"ERODE"} }
func (stubRecommender) Seasons() []string         { return []string{"Kharif"} }
func (stubRecommender) DemandDistricts() []string { return []string{"Durg"} }

type stubJob struct{}

func (stubJob) Trigger() (string, error)  { return "run-1", nil }
func (stubJob) Status() scheduler.Status { return scheduler.Status{} }

func newTestServer(t *testing.T, rateLimit int) (*Server, *auth.Service) {
	t.Helper()
	authSvc := auth.NewService("test-secret", time.Hour, "crop-advisor")
	s := NewServer(config.APIConfig{
		RateLimit:    rateLimit,
		RateWindow:   time.Minute,
		MaxBodyBytes: 1024,
	}, config.WebSocketConfig{}, Deps{
		Mode:        "test",
		Recommender: stubRecommender{},
		Job:         stubJob{},
		Auth:        authSvc,
		Checks:      map[string]handlers.Checker{},
		Metrics:     metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, authSvc
}

func request(s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	s, _ := newTestServer(t, 0)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodPost, "/recommend", `{"N":1,"P":1,"K":1,"temperature":1,"humidity":1,"rainfall":1}`, http.StatusOK},
		{http.MethodPost, "/seasonal_crop", `{"district":"erode","season":"kharif"}`, http.StatusOK},
		{http.MethodPost, "/demand", `{"district_name":"durg"}`, http.StatusOK},
		{http.MethodGet, "/districts", "", http.StatusOK},
		{http.MethodGet, "/seasons", "", http.StatusOK},
		{http.MethodGet, "/demand/districts", "", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", "", http.StatusOK},
		{http.MethodGet, "/no-such-route", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := request(s, tt.method, tt.path, tt.body, "")
		assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"), tt.path)
	}
}

func TestServer_AdminRequiresAdminToken(t *testing.T) {
	s, authSvc := newTestServer(t, 0)

	w := request(s, http.MethodPost, "/admin/forecasts/refresh", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer, err := authSvc.GenerateToken("bob", "viewer")
	require.NoError(t, err)
	w = request(s, http.MethodGet, "/admin/forecasts/status", "", viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := authSvc.GenerateToken("ops", auth.RoleAdmin)
	require.NoError(t, err)
	w = request(s, http.MethodPost, "/admin/forecasts/refresh", "", admin)
	assert.Equal(t, http.StatusAccepted, w.Code)
	w = request(s, http.MethodGet, "/admin/forecasts/status", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, 2)

	assert.Equal(t, http.StatusOK, request(s, http.MethodGet, "/districts", "", "").Code)
	assert.Equal(t, http.StatusOK, request(s, http.MethodGet, "/districts", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(s, http.MethodGet, "/districts", "", "").Code)
}

func TestServer_BodyLimit(t *testing.T) {
	s, _ := newTestServer(t, 0)

	big := `{"district":"` + string(bytes.Repeat([]byte("a"), 2048)) + `","season":"x"}`
	w := request(s, http.MethodPost, "/seasonal_crop", big, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/crop-advisor/api/middleware"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/scheduler"
)

// RefreshJob is the forecast refresh scheduler.
type RefreshJob interface {
	Trigger() (string, error)
	Status() scheduler.Status
}

type AdminHandler struct {
	job RefreshJob
}

func NewAdminHandler(job RefreshJob) *AdminHandler {
	return &AdminHandler{job: job}
}

type RefreshResponse struct {
	RunID  string `json:"run_id" example:"4f1c2b8e-5d7a-4c11-9a43-2f0e6f5d9b10"`
	Status string `json:"status" example:"accepted"`
}

// Refresh godoc
// @Summary Start a forecast refresh
// @Description Recomputes every stored forecast in the background
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} RefreshResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "A refresh is already running"
// @Router /admin/forecasts/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	runID, err := h.job.Trigger()
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, scheduler.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.WithContext(c.Request.Context()).
		WithField("run_id", runID).
		WithField("subject", middleware.GetSubject(c)).
		Info("Forecast refresh requested")

	c.JSON(http.StatusAccepted, RefreshResponse{RunID: runID, Status: "accepted"})
}

// Status godoc
// @Summary Forecast refresh status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} scheduler.Status
// @Failure 401 {object} map[string]string
// @Router /admin/forecasts/status [get]
func (h *AdminHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.job.Status())
}

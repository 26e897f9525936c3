package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/crop-advisor/internal/recommend"
)

// statusFor maps service sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput),
		errors.Is(err, recommend.ErrDistrictNotFound),
		errors.Is(err, recommend.ErrSeasonNotFound),
		errors.Is(err, recommend.ErrInsufficientHistory):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrForecastPending):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message}. Client errors carry the
// service's message; anything else reports the underlying error text.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "60")
	}

	var reqErr *recommend.RequestError
	if errors.As(err, &reqErr) {
		c.JSON(status, gin.H{"error": reqErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

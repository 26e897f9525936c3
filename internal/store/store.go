package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

var ErrNotFound = errors.New("forecast not found")

// Store is the forecast lookup table written by the refresh job and read
// by request handlers.
type Store interface {
	Get(ctx context.Context, key string) (*models.StoredForecast, error)
	Put(ctx context.Context, f *models.StoredForecast, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

func SeasonalKey(district, season, crop string) string {
	return strings.Join([]string{string(models.ForecastKindSeasonal), district, season, crop}, ":")
}

func DemandKey(district string) string {
	return string(models.ForecastKindDemand) + ":" + district
}

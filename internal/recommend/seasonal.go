package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/internal/forecast"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/models"
	"github.com/OldStager01/crop-advisor/pkg/validation"
)

const (
	noteHistorical = "Recommendation based on historical average production."
	noteForecast   = "Prediction based on a sequence-model forecast of yearly production."
	noteFallback   = "Forecast unavailable; using historical average production."
)

// Seasonal ranks crops for a district and season by mean production and
// refines the top crop with a forecast when enough history exists.
func (s *Service) Seasonal(ctx context.Context, district, season string) (*models.SeasonalRecommendation, error) {
	district = validation.SanitizeString(district)
	season = validation.SanitizeString(season)

	resolvedDistrict, ok := s.crops.ResolveDistrict(district)
	if !ok {
		return nil, requestError(ErrDistrictNotFound, fmt.Sprintf("District '%s' not found!", district))
	}
	resolvedSeason, ok := s.crops.ResolveSeason(season)
	if !ok {
		return nil, requestError(ErrSeasonNotFound, fmt.Sprintf("Season '%s' not found!", season))
	}

	rows := s.crops.Slice(resolvedDistrict, resolvedSeason)
	if len(rows) == 0 {
		return nil, requestError(ErrNoData, fmt.Sprintf("No data available for %s in %s", resolvedDistrict, resolvedSeason))
	}

	averages := dataset.Averages(rows)
	top := averages
	if len(top) > cropsTopK {
		top = top[:cropsTopK]
	}

	result := &models.SeasonalRecommendation{
		District:        resolvedDistrict,
		Season:          resolvedSeason,
		RecommendedCrop: averages[0].Crop,
		TopCrops:        make([]models.CropAverage, len(top)),
	}
	for i, c := range top {
		result.TopCrops[i] = models.CropAverage{
			Rank:              i + 1,
			Crop:              c.Crop,
			AverageProduction: models.FiniteOrNil(c.Mean),
		}
	}

	best := averages[0]
	result.PredictedProduction = models.FiniteOrNil(best.Mean)
	result.ForecastStatus = models.ForecastHistorical
	result.Note = noteHistorical

	series := s.crops.Series(resolvedDistrict, resolvedSeason, best.Crop)
	if len(series) >= s.cfg.Seasonal.MinHistory {
		value, err := s.seasonalValue(ctx, resolvedDistrict, resolvedSeason, best.Crop)
		if err == nil && !math.IsNaN(value) && !math.IsInf(value, 0) {
			result.PredictedProduction = &value
			result.ForecastStatus = models.ForecastModel
			result.Note = noteForecast
		} else {
			if err != nil && !errors.Is(err, ErrForecastPending) {
				logger.WithDistrict(resolvedDistrict).
					WithField("season", resolvedSeason).
					WithField("crop", best.Crop).
					Warnf("Seasonal forecast failed, using historical average: %v", err)
			}
			result.ForecastStatus = models.ForecastFallback
			result.Note = noteFallback
		}
	}

	s.metrics.IncRecommendation("seasonal", string(result.ForecastStatus))
	return result, nil
}

func (s *Service) seasonalValue(ctx context.Context, district, season, crop string) (float64, error) {
	key := store.SeasonalKey(district, season, crop)
	if f, ok := s.lookup(ctx, models.ForecastKindSeasonal, key); ok && len(f.Values) == 1 {
		return f.Values[0], nil
	}
	if s.cfg.OnMiss == OnMissFallback {
		return 0, ErrForecastPending
	}

	f, err := s.ForecastSeasonal(ctx, district, season, crop)
	if err != nil {
		return 0, err
	}
	return f.Values[0], nil
}

// ForecastSeasonal trains and stores the next-year production forecast for
// one crop. Names must already be resolved.
func (s *Service) ForecastSeasonal(ctx context.Context, district, season, crop string) (*models.StoredForecast, error) {
	series := s.crops.Series(district, season, crop)
	if len(series) < s.cfg.Seasonal.MinHistory {
		return nil, fmt.Errorf("%w: %d yearly values for %s", ErrInsufficientHistory, len(series), crop)
	}

	key := store.SeasonalKey(district, season, crop)
	return s.compute(ctx, models.ForecastKindSeasonal, key, func(ctx context.Context) ([]float64, []string, error) {
		values, err := forecast.Next(ctx, forecast.Column(series), s.cfg.Seasonal, forecast.NewRand(s.cfg.Seed))
		return values, nil, err
	})
}

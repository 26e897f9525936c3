package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/OldStager01/crop-advisor/internal/forecast"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/models"
	"github.com/OldStager01/crop-advisor/pkg/validation"
)

// Demand forecasts next-period production for every column of a district
// and returns the highest five.
func (s *Service) Demand(ctx context.Context, district string) (*models.DemandForecast, error) {
	district = validation.SanitizeString(district)

	resolved, ok := s.districts.Resolve(district)
	if !ok {
		return nil, requestError(ErrDistrictNotFound,
			fmt.Sprintf("District '%s' not found. Please check the name and try again.", district))
	}

	if len(s.smoothedTotals(resolved)) < s.cfg.Demand.MinHistory {
		return nil, requestError(ErrInsufficientHistory, "Not enough historical data to compute trends.")
	}

	key := store.DemandKey(resolved)
	f, ok := s.lookup(ctx, models.ForecastKindDemand, key)
	if !ok {
		if s.cfg.OnMiss == OnMissFallback {
			s.metrics.IncRecommendation("demand", "pending")
			return nil, requestError(ErrForecastPending,
				fmt.Sprintf("Demand forecast for %s is not ready yet. Please try again later.", resolved))
		}

		var err error
		f, err = s.ForecastDemand(ctx, resolved)
		if err != nil {
			s.metrics.IncRecommendation("demand", "error")
			return nil, err
		}
	}

	s.metrics.IncRecommendation("demand", "forecast")
	return &models.DemandForecast{
		District: resolved,
		TopCrops: rankDemand(f.Columns, f.Values, demandTopK),
	}, nil
}

// ForecastDemand trains and stores the demand forecast for a resolved
// district.
func (s *Service) ForecastDemand(ctx context.Context, district string) (*models.StoredForecast, error) {
	smoothed := s.smoothedTotals(district)
	if len(smoothed) < s.cfg.Demand.MinHistory {
		return nil, fmt.Errorf("%w: %d smoothed years for %s", ErrInsufficientHistory, len(smoothed), district)
	}

	columns := s.districts.Columns()
	key := store.DemandKey(district)
	return s.compute(ctx, models.ForecastKindDemand, key, func(ctx context.Context) ([]float64, []string, error) {
		values, err := forecast.Next(ctx, smoothed, s.cfg.Demand, forecast.NewRand(s.cfg.Seed))
		return values, columns, err
	})
}

// smoothedTotals sums production per year and applies a trailing mean
// over min(5, years) years.
func (s *Service) smoothedTotals(district string) [][]float64 {
	_, totals := s.districts.YearlyTotals(district)
	window := 5
	if len(totals) < window {
		window = len(totals)
	}
	return forecast.RollingMean(totals, window)
}

func rankDemand(columns []string, values []float64, k int) []models.DemandPrediction {
	n := len(values)
	if len(columns) < n {
		n = len(columns)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	if k > n {
		k = n
	}

	out := make([]models.DemandPrediction, k)
	for rank, i := range idx[:k] {
		out[rank] = models.DemandPrediction{
			Rank:            rank + 1,
			Crop:            columns[i],
			PredictedDemand: values[i],
		}
	}
	return out
}

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/internal/events"
	"github.com/OldStager01/crop-advisor/internal/forecast"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/resilience"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/models"
	"github.com/OldStager01/crop-advisor/pkg/validation"
)

const (
	OnMissCompute  = "compute"
	OnMissFallback = "fallback"

	soilTopK   = 3
	cropsTopK  = 5
	demandTopK = 5
)

// Classifier ranks crops for a soil and climate reading.
type Classifier interface {
	Recommend(f models.Features, k int) ([]models.CropProbability, error)
}

type Config struct {
	Seasonal forecast.Profile
	Demand   forecast.Profile
	// OnMiss selects what a request does when the lookup table has no
	// forecast: train one now (OnMissCompute) or answer without it.
	OnMiss string
	TTL    time.Duration
	Seed   int64
}

type Deps struct {
	Classifier Classifier
	Crops      *dataset.CropTable
	Districts  *dataset.DistrictTable
	Store      store.Store
	Publisher  *events.Publisher
	Metrics    *metrics.Metrics
}

// Service is the recommendation pipeline. Everything it holds is loaded
// once at startup; the forecast store is the only thing written after that.
type Service struct {
	classifier Classifier
	crops      *dataset.CropTable
	districts  *dataset.DistrictTable
	store      store.Store
	publisher  *events.Publisher
	metrics    *metrics.Metrics
	cfg        Config
	group      singleflight.Group
	now        func() time.Time
}

func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Classifier == nil {
		return nil, errors.New("recommend: classifier is required")
	}
	if deps.Crops == nil || deps.Districts == nil {
		return nil, errors.New("recommend: both production tables are required")
	}
	if deps.Store == nil {
		return nil, errors.New("recommend: forecast store is required")
	}
	if cfg.OnMiss == "" {
		cfg.OnMiss = OnMissCompute
	}
	if cfg.OnMiss != OnMissCompute && cfg.OnMiss != OnMissFallback {
		return nil, fmt.Errorf("recommend: unknown on_miss policy %q", cfg.OnMiss)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Get()
	}

	return &Service{
		classifier: deps.Classifier,
		crops:      deps.Crops,
		districts:  deps.Districts,
		store:      deps.Store,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		cfg:        cfg,
		now:        time.Now,
	}, nil
}

// Recommend returns the three most probable crops for a soil reading.
func (s *Service) Recommend(ctx context.Context, f models.Features) (*models.SoilRecommendation, error) {
	fields := []string{"N", "P", "K", "temperature", "humidity", "rainfall"}
	for i, v := range f.Vector() {
		if err := validation.ValidateFinite(fields[i], v); err != nil {
			return nil, requestError(ErrInvalidInput, err.Error())
		}
	}

	recs, err := s.classifier.Recommend(f, soilTopK)
	if err != nil {
		s.metrics.IncRecommendation("soil", "error")
		return nil, fmt.Errorf("classifier: %w", err)
	}

	s.metrics.IncRecommendation("soil", "ok")
	return &models.SoilRecommendation{Recommendations: recs}, nil
}

func (s *Service) Districts() []string       { return s.crops.Districts() }
func (s *Service) Seasons() []string         { return s.crops.Seasons() }
func (s *Service) DemandDistricts() []string { return s.districts.Districts() }

// Ping checks the forecast store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type runIDKey struct{}

// WithRunID tags forecasts computed under ctx with a refresh run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// lookup reads the forecast table. Store failures are reported and
// treated as a miss.
func (s *Service) lookup(ctx context.Context, kind models.ForecastKind, key string) (*models.StoredForecast, bool) {
	f, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.IncForecastLookup(string(kind), "hit")
		return f, true
	case errors.Is(err, store.ErrNotFound):
		s.metrics.IncForecastLookup(string(kind), "miss")
	default:
		s.metrics.IncForecastLookup(string(kind), "error")
		logger.WithContext(ctx).WithField("key", key).Warnf("Forecast lookup failed: %v", err)
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			s.publisher.StoreUnavailable(err)
		}
	}
	return nil, false
}

// compute trains one forecast under a single-flight guard and stores it.
// A failed store write is logged; the fresh forecast is still returned.
// Training runs under the ctx of the caller that started it, so a
// cancelled request or refresh stops the fit between epochs.
func (s *Service) compute(ctx context.Context, kind models.ForecastKind, key string, fit func(ctx context.Context) ([]float64, []string, error)) (*models.StoredForecast, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		start := time.Now()
		values, columns, err := fit(ctx)
		s.metrics.ObserveForecastTraining(string(kind), time.Since(start))
		if err != nil {
			return nil, err
		}

		f := &models.StoredForecast{
			Kind:        kind,
			Key:         key,
			Columns:     columns,
			Values:      values,
			GeneratedAt: s.now().UTC(),
			RunID:       runIDFrom(ctx),
		}
		if err := s.store.Put(ctx, f, s.cfg.TTL); err != nil {
			logger.WithContext(ctx).WithField("key", key).Warnf("Failed to store forecast: %v", err)
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.StoredForecast), nil
}

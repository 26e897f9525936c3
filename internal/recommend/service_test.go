package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/internal/forecast"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

const cropCSV = `State_Name,District_Name,Crop_Year,Season,Crop,Area,Production
Tamil Nadu,ERODE,2000,Kharif,Rice,10,100
Tamil Nadu,ERODE,2001,Kharif,Rice,10,200
Tamil Nadu,ERODE,2002,Kharif,Rice,10,300
Tamil Nadu,ERODE,2003,Kharif,Rice,10,400
Tamil Nadu,ERODE,2004,Kharif,Rice,10,500
Tamil Nadu,ERODE,2005,Kharif,Rice,10,600
Tamil Nadu,ERODE,2001,Kharif,Maize,10,200
Tamil Nadu,Erode,2006,Kharif,Rice,10,99999
Tamil Nadu,ERODE,2001,Rabi,Wheat,10,200
Tamil Nadu,SALEM,2001,Whole Year,Banana,10,40
`

const districtCSV = `Dist Code,Year,State Name,Dist Name,RICE PRODUCTION (1000 tons),WHEAT PRODUCTION (1000 tons)
1,1966,Chhattisgarh,Durg,100,20
1,1967,Chhattisgarh,Durg,110,21
1,1968,Chhattisgarh,Durg,120,22
1,1969,Chhattisgarh,Durg,130,23
1,1970,Chhattisgarh,Durg,140,24
1,1971,Chhattisgarh,Durg,150,25
1,1972,Chhattisgarh,Durg,160,26
1,1973,Chhattisgarh,Durg,170,27
2,1966,Chhattisgarh,Bastar,5,1
2,1967,Chhattisgarh,Bastar,6,1
`

type fakeClassifier struct {
	recs []models.CropProbability
	err  error
	k    int
}

func (f *fakeClassifier) Recommend(_ models.Features, k int) ([]models.CropProbability, error) {
	f.k = k
	return f.recs, f.err
}

func testConfig(onMiss string) Config {
	return Config{
		Seasonal: forecast.Profile{
			TimeSteps:    2,
			MinHistory:   4,
			Hidden:       3,
			Epochs:       2,
			BatchSize:    1,
			LearningRate: 0.01,
		},
		Demand: forecast.Profile{
			TimeSteps:    1,
			MinHistory:   3,
			Hidden:       3,
			Epochs:       2,
			BatchSize:    2,
			LearningRate: 0.01,
		},
		OnMiss: onMiss,
		TTL:    time.Hour,
		Seed:   7,
	}
}

func newTestService(t *testing.T, onMiss string) (*Service, *store.MemoryStore) {
	t.Helper()

	crops, err := dataset.ReadCropCSV(strings.NewReader(cropCSV))
	require.NoError(t, err)
	districts, err := dataset.ReadDistrictCSV(strings.NewReader(districtCSV))
	require.NoError(t, err)

	st := store.NewMemoryStore()
	svc, err := NewService(Deps{
		Classifier: &fakeClassifier{recs: []models.CropProbability{{Crop: "rice", Probability: 0.9}}},
		Crops:      crops,
		Districts:  districts,
		Store:      st,
		Metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
	}, testConfig(onMiss))
	require.NoError(t, err)
	return svc, st
}

func assertRequestError(t *testing.T, err error, sentinel error, message string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, message, reqErr.Message)
}

func TestNewService_Validation(t *testing.T) {
	crops := dataset.NewCropTable(nil, false)
	districts := dataset.NewDistrictTable(nil, nil)
	cls := &fakeClassifier{}
	st := store.NewMemoryStore()

	tests := []struct {
		name   string
		deps   Deps
		onMiss string
	}{
		{"missing classifier", Deps{Crops: crops, Districts: districts, Store: st}, ""},
		{"missing tables", Deps{Classifier: cls, Store: st}, ""},
		{"missing store", Deps{Classifier: cls, Crops: crops, Districts: districts}, ""},
		{"bad policy", Deps{Classifier: cls, Crops: crops, Districts: districts, Store: st}, "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.deps, Config{OnMiss: tt.onMiss})
			assert.Error(t, err)
		})
	}
}

func TestRecommend(t *testing.T) {
	svc, _ := newTestService(t, OnMissCompute)
	cls := svc.classifier.(*fakeClassifier)

	got, err := svc.Recommend(context.Background(), models.Features{Nitrogen: 90, Phosphorus: 42, Potassium: 43, Temperature: 20.8, Humidity: 82, Rainfall: 202.9})
	require.NoError(t, err)
	assert.Equal(t, soilTopK, cls.k)
	assert.Equal(t, "rice", got.Recommendations[0].Crop)

	_, err = svc.Recommend(context.Background(), models.Features{Rainfall: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cls.err = errors.New("boom")
	_, err = svc.Recommend(context.Background(), models.Features{})
	require.Error(t, err)
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
}

func TestSeasonal_RequestErrors(t *testing.T) {
	svc, _ := newTestService(t, OnMissCompute)

	tests := []struct {
		name     string
		district string
		season   string
		sentinel error
		message  string
	}{
		{"unknown district", "Madurai", "Kharif", ErrDistrictNotFound, "District 'Madurai' not found!"},
		{"unknown season", "erode", "Summer", ErrSeasonNotFound, "Season 'Summer' not found!"},
		{"no rows", "salem", "rabi", ErrNoData, "No data available for SALEM in Rabi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Seasonal(context.Background(), tt.district, tt.season)
			assertRequestError(t, err, tt.sentinel, tt.message)
		})
	}
}

func TestSeasonal_HistoricalAverage(t *testing.T) {
	svc, st := newTestService(t, OnMissCompute)

	got, err := svc.Seasonal(context.Background(), " salem ", "WHOLE YEAR")
	require.NoError(t, err)

	assert.Equal(t, "SALEM", got.District)
	assert.Equal(t, "Whole Year", got.Season)
	assert.Equal(t, "Banana", got.RecommendedCrop)
	assert.Equal(t, models.ForecastHistorical, got.ForecastStatus)
	assert.Equal(t, noteHistorical, got.Note)
	require.NotNil(t, got.PredictedProduction)
	assert.Equal(t, 40.0, *got.PredictedProduction)
	assert.Equal(t, 0, st.Len())
}

func TestSeasonal_ComputesForecastOnMiss(t *testing.T) {
	svc, st := newTestService(t, OnMissCompute)

	got, err := svc.Seasonal(context.Background(), "erode", "kharif")
	require.NoError(t, err)

	assert.Equal(t, "ERODE", got.District)
	assert.Equal(t, "Rice", got.RecommendedCrop)
	assert.Equal(t, models.ForecastModel, got.ForecastStatus)
	require.NotNil(t, got.PredictedProduction)
	assert.False(t, math.IsNaN(*got.PredictedProduction))

	require.Len(t, got.TopCrops, 2)
	assert.Equal(t, models.CropAverage{Rank: 1, Crop: "Rice", AverageProduction: models.FiniteOrNil(350)}, got.TopCrops[0])
	assert.Equal(t, "Maize", got.TopCrops[1].Crop)

	stored, err := st.Get(context.Background(), store.SeasonalKey("ERODE", "Kharif", "Rice"))
	require.NoError(t, err)
	assert.Equal(t, *got.PredictedProduction, stored.Values[0])
}

func TestSeasonal_MissingProductionSerializesAsNull(t *testing.T) {
	const sparseCSV = `State_Name,District_Name,Crop_Year,Season,Crop,Area,Production
Tamil Nadu,NAMAKKAL,2001,Rabi,Gram,10,
Tamil Nadu,NAMAKKAL,2002,Rabi,Gram,10,
Tamil Nadu,SALEM,2001,Rabi,Gram,10,
Tamil Nadu,SALEM,2001,Rabi,Onion,10,80
`
	crops, err := dataset.ReadCropCSV(strings.NewReader(sparseCSV))
	require.NoError(t, err)
	districts, err := dataset.ReadDistrictCSV(strings.NewReader(districtCSV))
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Classifier: &fakeClassifier{},
		Crops:      crops,
		Districts:  districts,
		Store:      store.NewMemoryStore(),
		Metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
	}, testConfig(OnMissCompute))
	require.NoError(t, err)

	tests := []struct {
		name      string
		district  string
		wantCrop  string
		contains  []string
		predicted bool
	}{
		{
			name:     "every value missing",
			district: "NAMAKKAL",
			wantCrop: "Gram",
			contains: []string{
				`"predicted_production":null`,
				`"average_production":null`,
			},
		},
		{
			name:     "missing crop ranks last",
			district: "SALEM",
			wantCrop: "Onion",
			contains: []string{
				`"predicted_production":80`,
				`{"rank":2,"crop":"Gram","average_production":null}`,
			},
			predicted: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Seasonal(context.Background(), tt.district, "Rabi")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCrop, got.RecommendedCrop)
			assert.Equal(t, models.ForecastHistorical, got.ForecastStatus)
			assert.Equal(t, tt.predicted, got.PredictedProduction != nil)

			body, err := json.Marshal(got)
			require.NoError(t, err)
			assert.NotContains(t, string(body), "NaN")
			for _, want := range tt.contains {
				assert.Contains(t, string(body), want)
			}
		})
	}
}

func TestSeasonal_FallbackPolicy(t *testing.T) {
	svc, st := newTestService(t, OnMissFallback)
	ctx := context.Background()

	got, err := svc.Seasonal(ctx, "ERODE", "Kharif")
	require.NoError(t, err)
	assert.Equal(t, models.ForecastFallback, got.ForecastStatus)
	assert.Equal(t, noteFallback, got.Note)
	assert.Equal(t, 350.0, *got.PredictedProduction)
	assert.Equal(t, 0, st.Len())

	require.NoError(t, st.Put(ctx, &models.StoredForecast{
		Kind:   models.ForecastKindSeasonal,
		Key:    store.SeasonalKey("ERODE", "Kharif", "Rice"),
		Values: []float64{712.5},
	}, time.Hour))

	got, err = svc.Seasonal(ctx, "ERODE", "Kharif")
	require.NoError(t, err)
	assert.Equal(t, models.ForecastModel, got.ForecastStatus)
	assert.Equal(t, 712.5, *got.PredictedProduction)
}

func TestForecast_CancelledContextStopsTraining(t *testing.T) {
	svc, st := newTestService(t, OnMissCompute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ForecastSeasonal(ctx, "ERODE", "Kharif", "Rice")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = svc.ForecastDemand(ctx, "Durg")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, st.Len())
}

func TestDemand_RequestErrors(t *testing.T) {
	svc, _ := newTestService(t, OnMissCompute)

	_, err := svc.Demand(context.Background(), "Nowhere")
	assertRequestError(t, err, ErrDistrictNotFound, "District 'Nowhere' not found. Please check the name and try again.")

	_, err = svc.Demand(context.Background(), "bastar")
	assertRequestError(t, err, ErrInsufficientHistory, "Not enough historical data to compute trends.")
}

func TestDemand_ComputesForecastOnMiss(t *testing.T) {
	svc, st := newTestService(t, OnMissCompute)

	got, err := svc.Demand(context.Background(), "DURG")
	require.NoError(t, err)

	assert.Equal(t, "Durg", got.District)
	require.Len(t, got.TopCrops, 2)
	assert.Equal(t, 1, got.TopCrops[0].Rank)
	assert.GreaterOrEqual(t, got.TopCrops[0].PredictedDemand, got.TopCrops[1].PredictedDemand)

	stored, err := st.Get(context.Background(), store.DemandKey("Durg"))
	require.NoError(t, err)
	assert.Equal(t, []string{"RICE PRODUCTION (1000 tons)", "WHEAT PRODUCTION (1000 tons)"}, stored.Columns)
}

func TestDemand_FallbackPolicy(t *testing.T) {
	svc, st := newTestService(t, OnMissFallback)
	ctx := context.Background()

	_, err := svc.Demand(ctx, "Durg")
	assert.ErrorIs(t, err, ErrForecastPending)

	require.NoError(t, st.Put(ctx, &models.StoredForecast{
		Kind:    models.ForecastKindDemand,
		Key:     store.DemandKey("Durg"),
		Columns: []string{"RICE PRODUCTION (1000 tons)", "WHEAT PRODUCTION (1000 tons)"},
		Values:  []float64{5, 50},
	}, time.Hour))

	got, err := svc.Demand(ctx, "durg")
	require.NoError(t, err)
	assert.Equal(t, []models.DemandPrediction{
		{Rank: 1, Crop: "WHEAT PRODUCTION (1000 tons)", PredictedDemand: 50},
		{Rank: 2, Crop: "RICE PRODUCTION (1000 tons)", PredictedDemand: 5},
	}, got.TopCrops)
}

func TestRankDemand(t *testing.T) {
	columns := []string{"A", "B", "C", "D", "E", "F"}
	values := []float64{3, 9, 3, 1, 7, 5}

	got := rankDemand(columns, values, 5)

	require.Len(t, got, 5)
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Crop
		assert.Equal(t, i+1, p.Rank)
	}
	assert.Equal(t, []string{"B", "E", "F", "A", "C"}, names)
	assert.Empty(t, rankDemand(nil, nil, 5))
}

func TestRefreshTargets(t *testing.T) {
	svc, _ := newTestService(t, OnMissCompute)

	got := svc.RefreshTargets()

	assert.Equal(t, []Target{
		{Kind: models.ForecastKindSeasonal, District: "ERODE", Season: "Kharif", Crop: "Rice"},
		{Kind: models.ForecastKindDemand, District: "Durg"},
	}, got)
	assert.Equal(t, "seasonal:ERODE:Kharif:Rice", got[0].Key())
	assert.Equal(t, "demand:Durg", got[1].Key())
}

func TestRefresh(t *testing.T) {
	svc, st := newTestService(t, OnMissFallback)
	ctx := WithRunID(context.Background(), "run-1")

	for _, target := range svc.RefreshTargets() {
		f, err := svc.Refresh(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, "run-1", f.RunID)
		assert.Equal(t, target.Key(), f.Key)
	}
	assert.Equal(t, 2, st.Len())

	_, err := svc.Refresh(ctx, Target{Kind: "weekly"})
	assert.Error(t, err)
}

package forecast

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaler_RoundTrip(t *testing.T) {
	matrix := [][]float64{{10, 5}, {20, 5}, {30, 5}}
	s := FitScaler(matrix)

	scaled := s.Transform(matrix)
	assert.InDeltaSlice(t, []float64{0, 0}, scaled[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0}, scaled[1], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, scaled[2], 1e-12)

	assert.InDeltaSlice(t, []float64{25, 5}, s.Inverse([]float64{0.75, 0}), 1e-12)
}

func TestRollingMean(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
		window int
		want   [][]float64
	}{
		{
			name:   "window of two",
			matrix: [][]float64{{1}, {3}, {5}, {7}},
			window: 2,
			want:   [][]float64{{2}, {4}, {6}},
		},
		{
			name:   "window equals length",
			matrix: [][]float64{{1, 10}, {2, 20}, {3, 30}},
			window: 3,
			want:   [][]float64{{2, 20}},
		},
		{
			name:   "window larger than series",
			matrix: [][]float64{{1}},
			window: 2,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RollingMean(tt.matrix, tt.window))
		})
	}
}

func TestWindows(t *testing.T) {
	x, y := Windows(Column([]float64{1, 2, 3, 4, 5}), 3)

	require.Len(t, x, 2)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, x[0])
	assert.Equal(t, []float64{4}, y[0])
	assert.Equal(t, []float64{5}, y[1])

	x, y = Windows(Column([]float64{1, 2, 3}), 3)
	assert.Nil(t, x)
	assert.Nil(t, y)
}

func TestNetwork_GradientCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	net := NewNetwork(2, 3, 2, rng)
	for i := range net.theta {
		net.theta[i] += rng.NormFloat64() * 0.1
	}

	seq := [][]float64{{0.1, -0.4}, {0.7, 0.2}, {-0.3, 0.9}}
	target := []float64{0.25, -0.5}

	grad := make([]float64, len(net.theta))
	net.sampleLoss(seq, target, grad, 1)

	const eps = 1e-5
	for i := range net.theta {
		orig := net.theta[i]
		net.theta[i] = orig + eps
		plus := net.sampleLoss(seq, target, nil, 0)
		net.theta[i] = orig - eps
		minus := net.sampleLoss(seq, target, nil, 0)
		net.theta[i] = orig

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, grad[i], 1e-6, "parameter %d", i)
	}
}

func TestNetwork_ForgetBiasInitialisedToOne(t *testing.T) {
	net := NewNetwork(1, 4, 1, rand.New(rand.NewSource(1)))
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}, net.p.b)
	assert.Len(t, net.theta, paramCount(1, 4, 1))
}

func TestNetwork_FitReducesLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(i) / 19
	}
	x, y := Windows(Column(series), 3)

	net := NewNetwork(1, 8, 1, rng)
	before := net.meanLoss(x, y)

	hist, err := net.Fit(context.Background(), x, y, TrainConfig{Epochs: 60, BatchSize: 4, LearningRate: 0.01}, rng)
	require.NoError(t, err)

	assert.Len(t, hist.TrainLoss, 60)
	assert.Less(t, net.meanLoss(x, y), before)
	assert.False(t, hist.Stopped)
}

func TestNetwork_FitEarlyStopping(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	series := make([]float64, 30)
	for i := range series {
		series[i] = rng.Float64()
	}
	x, y := Windows(Column(series), 5)

	net := NewNetwork(1, 4, 1, rng)
	hist, err := net.Fit(context.Background(), x, y, TrainConfig{
		Epochs:          500,
		BatchSize:       8,
		LearningRate:    0.05,
		ValidationSplit: 0.2,
		Patience:        3,
	}, rng)
	require.NoError(t, err)

	assert.Equal(t, len(hist.TrainLoss), len(hist.ValLoss))
	if hist.Stopped {
		assert.Less(t, len(hist.TrainLoss), 500)
		assert.Equal(t, hist.BestEpoch+3, len(hist.ValLoss)-1)
	}
	assert.InDelta(t, hist.ValLoss[hist.BestEpoch], net.meanLoss(x[20:], y[20:]), 1e-12)
}

func TestNetwork_FitEmpty(t *testing.T) {
	net := NewNetwork(1, 2, 1, rand.New(rand.NewSource(1)))
	_, err := net.Fit(context.Background(), nil, nil, TrainConfig{Epochs: 1}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func testProfile() Profile {
	return Profile{
		TimeSteps:    3,
		Hidden:       8,
		Epochs:       30,
		BatchSize:    1,
		LearningRate: 0.01,
	}
}

func TestNext(t *testing.T) {
	series := Column([]float64{100, 120, 140, 160, 180, 200, 220})

	got, err := Next(context.Background(), series, testProfile(), rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, math.IsNaN(got[0]))

	again, err := Next(context.Background(), series, testProfile(), rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNext_MultiColumn(t *testing.T) {
	matrix := [][]float64{
		{1, 50, 7}, {2, 48, 7}, {3, 46, 7}, {4, 44, 7}, {5, 42, 7}, {6, 40, 7}, {7, 38, 7},
	}
	p := testProfile()
	p.TimeSteps = 5
	p.BatchSize = 8
	p.ValidationSplit = 0.2
	p.Patience = 10

	got, err := Next(context.Background(), matrix, p, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestNext_Errors(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
		want   error
	}{
		{"too short", Column([]float64{1, 2, 3}), ErrInsufficientData},
		{"nan input", Column([]float64{1, 2, math.NaN(), 4, 5}), ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Next(context.Background(), tt.matrix, testProfile(), rand.New(rand.NewSource(1)))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNext_Cancelled(t *testing.T) {
	series := Column([]float64{100, 120, 140, 160, 180, 200, 220})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Next(ctx, series, testProfile(), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)

	x, y := Windows(series, 3)
	net := NewNetwork(1, 4, 1, rand.New(rand.NewSource(1)))
	hist, err := net.Fit(ctx, x, y, TrainConfig{Epochs: 1000}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hist.TrainLoss)
}

func TestNewRand(t *testing.T) {
	a := NewRand(9).Int63()
	b := NewRand(9).Int63()
	assert.Equal(t, a, b)
	assert.NotNil(t, NewRand(0))
}

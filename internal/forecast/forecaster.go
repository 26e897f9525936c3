package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	ErrInsufficientData = errors.New("not enough observations to build a training window")
	ErrNonFinite        = errors.New("forecast produced a non-finite value")
)

// Profile is the training setup for one kind of forecast.
type Profile struct {
	TimeSteps       int
	MinHistory      int
	Hidden          int
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	Patience        int
}

func (p Profile) train() TrainConfig {
	return TrainConfig{
		Epochs:          p.Epochs,
		BatchSize:       p.BatchSize,
		LearningRate:    p.LearningRate,
		ValidationSplit: p.ValidationSplit,
		Patience:        p.Patience,
	}
}

// Next fits a fresh network to matrix (rows ordered oldest first) and
// returns its prediction for the row after the last one, in the original
// units. Training stops early with ctx.Err() when ctx is done.
func Next(ctx context.Context, matrix [][]float64, p Profile, rng *rand.Rand) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(matrix) <= p.TimeSteps {
		return nil, fmt.Errorf("%w: have %d rows, need more than %d", ErrInsufficientData, len(matrix), p.TimeSteps)
	}
	for _, row := range matrix {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w in input series", ErrNonFinite)
			}
		}
	}

	scaler := FitScaler(matrix)
	scaled := scaler.Transform(matrix)
	x, y := Windows(scaled, p.TimeSteps)

	cols := len(matrix[0])
	net := NewNetwork(cols, p.Hidden, cols, rng)
	if _, err := net.Fit(ctx, x, y, p.train(), rng); err != nil {
		return nil, err
	}

	pred := scaler.Inverse(net.Predict(scaled[len(scaled)-p.TimeSteps:]))
	for _, v := range pred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
	}
	return pred, nil
}

// NewRand returns a generator seeded with seed, or with the clock when
// seed is zero.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

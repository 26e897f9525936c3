package classifier

import (
	"errors"
	"fmt"
)

// MinMaxScaler applies a fitted min-max transform: x*Scale + Min.
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
}

// ScalerArtifact is the on-disk form of a fitted scaler.
type ScalerArtifact struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

func NewMinMaxScaler(a ScalerArtifact) (*MinMaxScaler, error) {
	if len(a.DataMin) == 0 {
		return nil, errors.New("scaler has no features")
	}
	if len(a.DataMin) != len(a.DataMax) {
		return nil, fmt.Errorf("scaler data_min has %d values, data_max has %d", len(a.DataMin), len(a.DataMax))
	}

	lo, hi := a.FeatureRange[0], a.FeatureRange[1]
	if lo == 0 && hi == 0 {
		hi = 1
	}
	if hi <= lo {
		return nil, fmt.Errorf("invalid feature_range [%g, %g]", lo, hi)
	}

	s := &MinMaxScaler{
		Min:   make([]float64, len(a.DataMin)),
		Scale: make([]float64, len(a.DataMin)),
	}
	for i := range a.DataMin {
		span := a.DataMax[i] - a.DataMin[i]
		if span == 0 {
			span = 1
		}
		s.Scale[i] = (hi - lo) / span
		s.Min[i] = lo - a.DataMin[i]*s.Scale[i]
	}
	return s, nil
}

func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Scale)
}

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Scale), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

package forecast

// Scaler is a per-column min-max scaler fitted to [0, 1].
type Scaler struct {
	min   []float64
	scale []float64
}

// FitScaler fits one scaler per column. Constant columns get a scale of 1.
func FitScaler(matrix [][]float64) *Scaler {
	if len(matrix) == 0 {
		return &Scaler{}
	}
	cols := len(matrix[0])
	lo := make([]float64, cols)
	hi := make([]float64, cols)
	copy(lo, matrix[0])
	copy(hi, matrix[0])
	for _, row := range matrix[1:] {
		for j, v := range row {
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
	}

	s := &Scaler{min: make([]float64, cols), scale: make([]float64, cols)}
	for j := range lo {
		span := hi[j] - lo[j]
		if span == 0 {
			span = 1
		}
		s.scale[j] = 1 / span
		s.min[j] = -lo[j] * s.scale[j]
	}
	return s
}

func (s *Scaler) Transform(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v*s.scale[j] + s.min[j]
		}
	}
	return out
}

func (s *Scaler) Inverse(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.min[j]) / s.scale[j]
	}
	return out
}

// RollingMean returns the trailing mean of every window rows, dropping the
// first window-1 rows that have no full window.
func RollingMean(matrix [][]float64, window int) [][]float64 {
	if window <= 0 || len(matrix) < window {
		return nil
	}
	cols := len(matrix[0])
	out := make([][]float64, 0, len(matrix)-window+1)
	for end := window; end <= len(matrix); end++ {
		mean := make([]float64, cols)
		for _, row := range matrix[end-window : end] {
			for j, v := range row {
				mean[j] += v
			}
		}
		for j := range mean {
			mean[j] /= float64(window)
		}
		out = append(out, mean)
	}
	return out
}

// Windows slices a series into inputs of steps consecutive rows, each
// paired with the row that follows it.
func Windows(matrix [][]float64, steps int) ([][][]float64, [][]float64) {
	n := len(matrix) - steps
	if steps <= 0 || n <= 0 {
		return nil, nil
	}
	x := make([][][]float64, n)
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		x[i] = matrix[i : i+steps]
		y[i] = matrix[i+steps]
	}
	return x, y
}

// Column wraps a single series as a one-column matrix.
func Column(series []float64) [][]float64 {
	out := make([][]float64, len(series))
	for i, v := range series {
		out[i] = []float64{v}
	}
	return out
}

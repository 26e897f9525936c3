package forecast

import (
	"context"
	"math"
	"math/rand"
)

type TrainConfig struct {
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	// Patience is the number of epochs without validation improvement
	// before training stops. Zero disables early stopping.
	Patience int
}

type History struct {
	TrainLoss []float64
	ValLoss   []float64
	BestEpoch int
	Stopped   bool
}

type adam struct {
	lr, beta1, beta2, eps float64
	m, v                  []float64
	t                     int
}

func newAdam(size int, lr float64) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-7,
		m:     make([]float64, size),
		v:     make([]float64, size),
	}
}

func (a *adam) step(theta, grad []float64) {
	a.t++
	t := float64(a.t)
	lr := a.lr * math.Sqrt(1-math.Pow(a.beta2, t)) / (1 - math.Pow(a.beta1, t))
	for i, g := range grad {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g
		theta[i] -= lr * a.m[i] / (math.Sqrt(a.v[i]) + a.eps)
	}
}

// Fit trains on (x, y) with mini-batch Adam. The tail ValidationSplit of
// the samples is held out, in order, for early stopping; the weights of
// the best validation epoch are restored at the end. ctx is checked
// before every epoch; on cancellation Fit returns ctx.Err() with the
// network left partly trained.
func (n *Network) Fit(ctx context.Context, x [][][]float64, y [][]float64, cfg TrainConfig, rng *rand.Rand) (History, error) {
	var hist History
	if len(x) == 0 {
		return hist, ErrInsufficientData
	}

	nTrain := len(x)
	if cfg.ValidationSplit > 0 {
		nTrain = int(float64(len(x)) * (1 - cfg.ValidationSplit))
		if nTrain == 0 {
			nTrain = len(x)
		}
	}
	trainX, trainY := x[:nTrain], y[:nTrain]
	valX, valY := x[nTrain:], y[nTrain:]
	validate := len(valX) > 0

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 32
	}

	opt := newAdam(len(n.theta), cfg.LearningRate)
	grad := make([]float64, len(n.theta))

	bestLoss := math.Inf(1)
	var best []float64
	wait := 0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return hist, err
		}
		perm := rng.Perm(nTrain)
		var epochLoss float64

		for start := 0; start < nTrain; start += batch {
			end := start + batch
			if end > nTrain {
				end = nTrain
			}
			for i := range grad {
				grad[i] = 0
			}
			weight := 1 / float64(end-start)
			for _, idx := range perm[start:end] {
				epochLoss += n.sampleLoss(trainX[idx], trainY[idx], grad, weight)
			}
			opt.step(n.theta, grad)
		}

		epochLoss /= float64(nTrain)
		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return hist, ErrNonFinite
		}
		hist.TrainLoss = append(hist.TrainLoss, epochLoss)

		if !validate {
			continue
		}

		valLoss := n.meanLoss(valX, valY)
		hist.ValLoss = append(hist.ValLoss, valLoss)
		if valLoss < bestLoss {
			bestLoss = valLoss
			hist.BestEpoch = epoch
			best = append(best[:0], n.theta...)
			wait = 0
			continue
		}
		wait++
		if cfg.Patience > 0 && wait >= cfg.Patience {
			hist.Stopped = true
			break
		}
	}

	if best != nil {
		copy(n.theta, best)
	}
	return hist, nil
}

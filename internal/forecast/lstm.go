package forecast

import (
	"math"
	"math/rand"
)

// Network is a single-layer LSTM followed by a dense output layer. All
// parameters live in one flat slice so the optimiser can treat them
// uniformly; the named fields are views into it.
//
// Gate blocks are ordered input, forget, cell, output.
type Network struct {
	In     int
	Hidden int
	Out    int

	theta []float64
	p     params
}

type params struct {
	wx []float64 // 4H x In
	wh []float64 // 4H x H
	b  []float64 // 4H
	wy []float64 // Out x H
	by []float64 // Out
}

func paramCount(in, hidden, out int) int {
	h4 := 4 * hidden
	return h4*in + h4*hidden + h4 + out*hidden + out
}

func NewNetwork(in, hidden, out int, rng *rand.Rand) *Network {
	n := &Network{
		In:     in,
		Hidden: hidden,
		Out:    out,
		theta:  make([]float64, paramCount(in, hidden, out)),
	}
	n.p = n.split(n.theta)

	h4 := 4 * hidden
	glorot(n.p.wx, in, h4, rng)
	glorot(n.p.wh, hidden, h4, rng)
	glorot(n.p.wy, hidden, out, rng)
	for j := hidden; j < 2*hidden; j++ {
		n.p.b[j] = 1
	}
	return n
}

func (n *Network) split(buf []float64) params {
	h4 := 4 * n.Hidden
	off := 0
	take := func(size int) []float64 {
		s := buf[off : off+size : off+size]
		off += size
		return s
	}
	return params{
		wx: take(h4 * n.In),
		wh: take(h4 * n.Hidden),
		b:  take(h4),
		wy: take(n.Out * n.Hidden),
		by: take(n.Out),
	}
}

func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

type step struct {
	x, hPrev, cPrev []float64
	i, f, g, o      []float64
	c, tc           []float64
}

type tape struct {
	steps []step
	h     []float64
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// forward runs the sequence and returns the dense output and, when record
// is set, the activations needed for backpropagation.
func (n *Network) forward(seq [][]float64, record bool) ([]float64, *tape) {
	H := n.Hidden
	h := make([]float64, H)
	c := make([]float64, H)
	z := make([]float64, 4*H)

	var tp *tape
	if record {
		tp = &tape{steps: make([]step, 0, len(seq))}
	}

	for _, x := range seq {
		for r := range z {
			sum := n.p.b[r]
			row := n.p.wx[r*n.In : (r+1)*n.In]
			for k, v := range x {
				sum += row[k] * v
			}
			rowH := n.p.wh[r*H : (r+1)*H]
			for k, v := range h {
				sum += rowH[k] * v
			}
			z[r] = sum
		}

		s := step{
			x:     x,
			hPrev: h,
			cPrev: c,
			i:     make([]float64, H),
			f:     make([]float64, H),
			g:     make([]float64, H),
			o:     make([]float64, H),
			c:     make([]float64, H),
			tc:    make([]float64, H),
		}
		hNext := make([]float64, H)
		for j := 0; j < H; j++ {
			s.i[j] = sigmoid(z[j])
			s.f[j] = sigmoid(z[H+j])
			s.g[j] = math.Tanh(z[2*H+j])
			s.o[j] = sigmoid(z[3*H+j])
			s.c[j] = s.f[j]*c[j] + s.i[j]*s.g[j]
			s.tc[j] = math.Tanh(s.c[j])
			hNext[j] = s.o[j] * s.tc[j]
		}
		h, c = hNext, s.c
		if record {
			tp.steps = append(tp.steps, s)
		}
	}

	y := make([]float64, n.Out)
	for r := range y {
		sum := n.p.by[r]
		row := n.p.wy[r*H : (r+1)*H]
		for j, v := range h {
			sum += row[j] * v
		}
		y[r] = sum
	}
	if record {
		tp.h = h
	}
	return y, tp
}

// backward accumulates dLoss/dTheta into grad given dLoss/dy.
func (n *Network) backward(tp *tape, dy []float64, grad []float64) {
	H := n.Hidden
	gp := n.split(grad)

	dh := make([]float64, H)
	for r, d := range dy {
		gp.by[r] += d
		row := n.p.wy[r*H : (r+1)*H]
		grow := gp.wy[r*H : (r+1)*H]
		for j := 0; j < H; j++ {
			grow[j] += d * tp.h[j]
			dh[j] += row[j] * d
		}
	}

	dc := make([]float64, H)
	dz := make([]float64, 4*H)
	for t := len(tp.steps) - 1; t >= 0; t-- {
		s := tp.steps[t]
		for j := 0; j < H; j++ {
			do := dh[j] * s.tc[j]
			dct := dc[j] + dh[j]*s.o[j]*(1-s.tc[j]*s.tc[j])
			dz[j] = dct * s.g[j] * s.i[j] * (1 - s.i[j])
			dz[H+j] = dct * s.cPrev[j] * s.f[j] * (1 - s.f[j])
			dz[2*H+j] = dct * s.i[j] * (1 - s.g[j]*s.g[j])
			dz[3*H+j] = do * s.o[j] * (1 - s.o[j])
			dc[j] = dct * s.f[j]
		}

		for j := range dh {
			dh[j] = 0
		}
		for r, d := range dz {
			gp.b[r] += d
			gx := gp.wx[r*n.In : (r+1)*n.In]
			for k, v := range s.x {
				gx[k] += d * v
			}
			gh := gp.wh[r*H : (r+1)*H]
			wh := n.p.wh[r*H : (r+1)*H]
			for k := 0; k < H; k++ {
				gh[k] += d * s.hPrev[k]
				dh[k] += wh[k] * d
			}
		}
	}
}

// Predict runs one input sequence through the network.
func (n *Network) Predict(seq [][]float64) []float64 {
	y, _ := n.forward(seq, false)
	return y
}

// sampleLoss is the mean squared error over outputs. When grad is non-nil
// the gradient, scaled by weight, is accumulated into it.
func (n *Network) sampleLoss(x [][]float64, target []float64, grad []float64, weight float64) float64 {
	y, tp := n.forward(x, grad != nil)

	var loss float64
	dy := make([]float64, len(y))
	for r := range y {
		diff := y[r] - target[r]
		loss += diff * diff
		dy[r] = 2 * diff / float64(n.Out) * weight
	}
	if grad != nil {
		n.backward(tp, dy, grad)
	}
	return loss / float64(n.Out)
}

func (n *Network) meanLoss(x [][][]float64, y [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var total float64
	for i := range x {
		total += n.sampleLoss(x[i], y[i], nil, 0)
	}
	return total / float64(len(x))
}

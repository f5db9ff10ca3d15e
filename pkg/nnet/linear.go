// Package nnet implements the small neural toolkit behind the gender-ID
// classifier: linear layers with closed-form gradients, an MLP
// container, statistics pooling, a binary cross-entropy cost, SGD with
// momentum and NewBob learning-rate annealing.
//
// This is deliberately not a general autograd system. The model family
// is fixed (pooled features -> MLP embedding -> linear classifier), so
// each module knows its own backward pass.
package nnet

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Param is a trainable tensor with its accumulated gradient.
type Param struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() { p.Grad.Zero() }

// Linear is a fully connected layer: out = x*W + b.
// W has shape [in, out], b is a single row broadcast over the batch.
type Linear struct {
	W *Param
	B *Param

	x *mat.Dense // input cached by Forward for the backward pass
}

// NewLinear creates a layer with Xavier-uniform weights drawn from rng
// and zero bias.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	w := mat.NewDense(in, out, nil)
	limit := math.Sqrt(6.0 / float64(in+out))
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, (rng.Float64()*2-1)*limit)
		}
	}
	return &Linear{
		W: &Param{Value: w, Grad: mat.NewDense(in, out, nil)},
		B: &Param{Value: mat.NewDense(1, out, nil), Grad: mat.NewDense(1, out, nil)},
	}
}

// InDim returns the input dimensionality.
func (l *Linear) InDim() int { r, _ := l.W.Value.Dims(); return r }

// OutDim returns the output dimensionality.
func (l *Linear) OutDim() int { _, c := l.W.Value.Dims(); return c }

// Forward computes x*W + b for a batch of row vectors and caches x.
func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	out := &mat.Dense{}
	out.Mul(x, l.W.Value)
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		bias := l.B.Value.RawRowView(0)
		for j := range row {
			row[j] += bias[j]
		}
	}
	l.x = x
	return out
}

// Backward accumulates dW and db from the upstream gradient and
// returns the gradient with respect to the layer input. Forward must
// have been called first.
func (l *Linear) Backward(dout *mat.Dense) *mat.Dense {
	var dW mat.Dense
	dW.Mul(l.x.T(), dout)
	l.W.Grad.Add(l.W.Grad, &dW)

	rows, cols := dout.Dims()
	db := l.B.Grad.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := dout.RawRowView(i)
		for j := 0; j < cols; j++ {
			db[j] += row[j]
		}
	}

	dx := &mat.Dense{}
	dx.Mul(dout, l.W.Value.T())
	return dx
}

// Params returns the trainable parameters.
func (l *Linear) Params() []*Param { return []*Param{l.W, l.B} }

package nnet

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// MLP is a stack of linear layers with ReLU between them. The last
// layer has no activation so the network can produce raw logits or an
// unbounded embedding.
type MLP struct {
	layers []*Linear

	// pre holds the pre-activation output of each hidden layer from
	// the latest Forward, needed to gate gradients through ReLU.
	pre []*mat.Dense
}

// NewMLP builds a network from layer sizes, e.g. {80, 64, 1} gives one
// hidden layer of 64 units. At least two sizes are required.
func NewMLP(sizes []int, rng *rand.Rand) *MLP {
	if len(sizes) < 2 {
		panic("nnet: MLP needs at least an input and an output size")
	}
	m := &MLP{
		layers: make([]*Linear, len(sizes)-1),
		pre:    make([]*mat.Dense, len(sizes)-1),
	}
	for i := range m.layers {
		m.layers[i] = NewLinear(sizes[i], sizes[i+1], rng)
	}
	return m
}

// Forward runs the batch through every layer, applying ReLU after all
// but the last.
func (m *MLP) Forward(x *mat.Dense) *mat.Dense {
	out := x
	for i, l := range m.layers {
		z := l.Forward(out)
		m.pre[i] = z
		if i < len(m.layers)-1 {
			a := &mat.Dense{}
			a.Apply(func(_, _ int, v float64) float64 {
				if v < 0 {
					return 0
				}
				return v
			}, z)
			out = a
		} else {
			out = z
		}
	}
	return out
}

// Backward propagates the upstream gradient through the stack,
// accumulating per-layer gradients, and returns the gradient with
// respect to the network input.
func (m *MLP) Backward(dout *mat.Dense) *mat.Dense {
	d := dout
	for i := len(m.layers) - 1; i >= 0; i-- {
		if i < len(m.layers)-1 {
			gated := &mat.Dense{}
			gated.Apply(func(r, c int, v float64) float64 {
				if m.pre[i].At(r, c) <= 0 {
					return 0
				}
				return v
			}, d)
			d = gated
		}
		d = m.layers[i].Backward(d)
	}
	return d
}

// Params returns all trainable parameters in layer order.
func (m *MLP) Params() []*Param {
	var ps []*Param
	for _, l := range m.layers {
		ps = append(ps, l.Params()...)
	}
	return ps
}

// ZeroGrad clears every parameter gradient.
func (m *MLP) ZeroGrad() {
	for _, p := range m.Params() {
		p.ZeroGrad()
	}
}

// LayerState is the serializable form of one linear layer.
type LayerState struct {
	In  int       `msgpack:"in"`
	Out int       `msgpack:"out"`
	W   []float64 `msgpack:"w"`
	B   []float64 `msgpack:"b"`
}

// State snapshots the network weights.
func (m *MLP) State() []LayerState {
	states := make([]LayerState, len(m.layers))
	for i, l := range m.layers {
		in, out := l.W.Value.Dims()
		states[i] = LayerState{
			In:  in,
			Out: out,
			W:   append([]float64(nil), l.W.Value.RawMatrix().Data...),
			B:   append([]float64(nil), l.B.Value.RawRowView(0)...),
		}
	}
	return states
}

// LoadState restores weights captured by State. The layer shapes must
// match the network's.
func (m *MLP) LoadState(states []LayerState) error {
	if len(states) != len(m.layers) {
		return fmt.Errorf("nnet: state has %d layers, network has %d", len(states), len(m.layers))
	}
	for i, s := range states {
		l := m.layers[i]
		in, out := l.W.Value.Dims()
		if s.In != in || s.Out != out {
			return fmt.Errorf("nnet: layer %d shape mismatch: state %dx%d, network %dx%d", i, s.In, s.Out, in, out)
		}
		if len(s.W) != in*out || len(s.B) != out {
			return fmt.Errorf("nnet: layer %d has malformed weight data", i)
		}
		copy(l.W.Value.RawMatrix().Data, s.W)
		copy(l.B.Value.RawRowView(0), s.B)
	}
	return nil
}

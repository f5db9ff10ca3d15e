package nnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SGD is stochastic gradient descent with classical momentum.
// The same parameter slice, in the same order, must be passed to every
// Step call: velocities are matched to parameters positionally.
type SGD struct {
	lr       float64
	momentum float64
	vel      []*mat.Dense
}

// NewSGD creates an optimizer. momentum 0 gives plain gradient descent.
func NewSGD(lr, momentum float64) *SGD {
	return &SGD{lr: lr, momentum: momentum}
}

// LR returns the current learning rate.
func (o *SGD) LR() float64 { return o.lr }

// SetLR replaces the learning rate, typically from an annealing
// schedule between epochs.
func (o *SGD) SetLR(lr float64) { o.lr = lr }

// Step applies one update: v = momentum*v - lr*grad; p += v.
func (o *SGD) Step(params []*Param) {
	if o.vel == nil {
		o.vel = make([]*mat.Dense, len(params))
		for i, p := range params {
			r, c := p.Value.Dims()
			o.vel[i] = mat.NewDense(r, c, nil)
		}
	}
	for i, p := range params {
		v := o.vel[i].RawMatrix().Data
		g := p.Grad.RawMatrix().Data
		w := p.Value.RawMatrix().Data
		for j := range v {
			v[j] = o.momentum*v[j] - o.lr*g[j]
			w[j] += v[j]
		}
	}
}

// SGDState is the serializable optimizer state.
type SGDState struct {
	LR       float64     `msgpack:"lr"`
	Momentum float64     `msgpack:"momentum"`
	Vel      [][]float64 `msgpack:"vel"`
}

// State snapshots the learning rate and velocities.
func (o *SGD) State() SGDState {
	s := SGDState{LR: o.lr, Momentum: o.momentum}
	for _, v := range o.vel {
		s.Vel = append(s.Vel, append([]float64(nil), v.RawMatrix().Data...))
	}
	return s
}

// LoadState restores state captured by State. Step must have been
// called at least once, or Vel must be empty, so velocity shapes are
// known.
func (o *SGD) LoadState(s SGDState, params []*Param) error {
	o.lr = s.LR
	o.momentum = s.Momentum
	if len(s.Vel) == 0 {
		o.vel = nil
		return nil
	}
	if len(s.Vel) != len(params) {
		return fmt.Errorf("nnet: optimizer state has %d velocities, model has %d parameters", len(s.Vel), len(params))
	}
	o.vel = make([]*mat.Dense, len(params))
	for i, p := range params {
		r, c := p.Value.Dims()
		if len(s.Vel[i]) != r*c {
			return fmt.Errorf("nnet: velocity %d has %d values, parameter has %d", i, len(s.Vel[i]), r*c)
		}
		o.vel[i] = mat.NewDense(r, c, append([]float64(nil), s.Vel[i]...))
	}
	return nil
}

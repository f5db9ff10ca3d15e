package nnet

// NewBob anneals the learning rate based on validation loss: when the
// relative improvement over the previous epoch falls below a threshold
// for more epochs than the patience allows, the rate is multiplied by
// the anneal factor.
type NewBob struct {
	factor    float64
	threshold float64
	patience  int

	lr      float64
	prev    float64
	hasPrev bool
	waited  int
}

// NewBobAnnealer creates a scheduler starting at initialLR. factor is
// the multiplier applied on anneal (e.g. 0.5), threshold the minimum
// relative improvement (e.g. 0.0025), patience the number of
// sub-threshold epochs tolerated before annealing (0 anneals
// immediately).
func NewBobAnnealer(initialLR, factor, threshold float64, patience int) *NewBob {
	return &NewBob{
		factor:    factor,
		threshold: threshold,
		patience:  patience,
		lr:        initialLR,
	}
}

// LR returns the current learning rate.
func (n *NewBob) LR() float64 { return n.lr }

// Anneal records one epoch's validation loss and returns the learning
// rate before and after the update.
func (n *NewBob) Anneal(loss float64) (oldLR, newLR float64) {
	oldLR = n.lr
	if n.hasPrev && n.prev != 0 {
		improvement := (n.prev - loss) / n.prev
		if improvement < n.threshold {
			if n.waited >= n.patience {
				n.lr *= n.factor
				n.waited = 0
			} else {
				n.waited++
			}
		} else {
			n.waited = 0
		}
	}
	n.prev = loss
	n.hasPrev = true
	return oldLR, n.lr
}

// NewBobState is the serializable scheduler state.
type NewBobState struct {
	LR      float64 `msgpack:"lr"`
	Prev    float64 `msgpack:"prev"`
	HasPrev bool    `msgpack:"has_prev"`
	Waited  int     `msgpack:"waited"`
}

// State snapshots the scheduler.
func (n *NewBob) State() NewBobState {
	return NewBobState{LR: n.lr, Prev: n.prev, HasPrev: n.hasPrev, Waited: n.waited}
}

// LoadState restores state captured by State.
func (n *NewBob) LoadState(s NewBobState) {
	n.lr = s.LR
	n.prev = s.Prev
	n.hasPrev = s.HasPrev
	n.waited = s.Waited
}

package trainer

import (
	"gonum.org/v1/gonum/stat"

	"github.com/haivivi/genderid/pkg/nnet"
)

// BinaryStats accumulates per-batch losses and binary predictions over
// one stage of one epoch.
type BinaryStats struct {
	losses  []float64
	weights []float64
	tp, fp  int
	tn, fn  int
}

// Append records one batch: its mean loss, the raw logits and the
// {0,1} targets. The loss is weighted by batch size when averaging.
func (s *BinaryStats) Append(loss float64, logits, targets []float64) {
	s.losses = append(s.losses, loss)
	s.weights = append(s.weights, float64(len(logits)))
	for i, z := range logits {
		pred := nnet.Sigmoid(z) >= 0.5
		pos := targets[i] >= 0.5
		switch {
		case pred && pos:
			s.tp++
		case pred && !pos:
			s.fp++
		case !pred && pos:
			s.fn++
		default:
			s.tn++
		}
	}
}

// Summary is the aggregate view of one stage.
type Summary struct {
	Loss      float64 `msgpack:"loss"`
	Accuracy  float64 `msgpack:"accuracy"`
	Precision float64 `msgpack:"precision"`
	Recall    float64 `msgpack:"recall"`
	F1        float64 `msgpack:"f1"`
	Count     int     `msgpack:"count"`
}

// Summarize folds the accumulated batches into a Summary.
func (s *BinaryStats) Summarize() Summary {
	out := Summary{Count: s.tp + s.fp + s.tn + s.fn}
	if len(s.losses) > 0 {
		out.Loss = stat.Mean(s.losses, s.weights)
	}
	if out.Count > 0 {
		out.Accuracy = float64(s.tp+s.tn) / float64(out.Count)
	}
	if s.tp+s.fp > 0 {
		out.Precision = float64(s.tp) / float64(s.tp+s.fp)
	}
	if s.tp+s.fn > 0 {
		out.Recall = float64(s.tp) / float64(s.tp+s.fn)
	}
	if out.Precision+out.Recall > 0 {
		out.F1 = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}
	return out
}

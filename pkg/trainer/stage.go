// Package trainer runs the gender classifier's training and evaluation
// loops: feature extraction, forward/backward passes, metric tracking,
// learning-rate annealing and checkpointing.
package trainer

// Stage identifies which pass of an experiment a batch belongs to.
// Augmentation only runs in StageTrain; only StageTrain updates
// parameters.
type Stage int

const (
	StageTrain Stage = iota
	StageValid
	StageTest
)

func (s Stage) String() string {
	switch s {
	case StageTrain:
		return "train"
	case StageValid:
		return "valid"
	case StageTest:
		return "test"
	default:
		return "unknown"
	}
}

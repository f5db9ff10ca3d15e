package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/haivivi/genderid/pkg/audio/fbank"
	"github.com/haivivi/genderid/pkg/augment"
	"github.com/haivivi/genderid/pkg/dataio"
	"github.com/haivivi/genderid/pkg/nnet"
)

// Config sets up a Brain. Zero values fall back to the defaults noted
// per field.
type Config struct {
	Fbank fbank.Config

	EmbeddingHidden int // hidden units in the embedding MLP (default 192)
	EmbeddingDim    int // embedding size (default 64)

	Epochs    int
	BatchSize int     // default 16
	LR        float64 // initial learning rate (default 0.01)
	Momentum  float64

	AnnealFactor         float64 // default 0.5
	ImprovementThreshold float64 // default 0.0025
	Patience             int

	KeepCheckpoints int // best checkpoints retained (default 1)

	Seed uint64
}

func (c *Config) fillDefaults() {
	if c.EmbeddingHidden == 0 {
		c.EmbeddingHidden = 192
	}
	if c.EmbeddingDim == 0 {
		c.EmbeddingDim = 64
	}
	if c.BatchSize == 0 {
		c.BatchSize = 16
	}
	if c.LR == 0 {
		c.LR = 0.01
	}
	if c.AnnealFactor == 0 {
		c.AnnealFactor = 0.5
	}
	if c.ImprovementThreshold == 0 {
		c.ImprovementThreshold = 0.0025
	}
	if c.KeepCheckpoints == 0 {
		c.KeepCheckpoints = 1
	}
}

// EpochResult is handed to the epoch hook after each training epoch.
type EpochResult struct {
	Epoch int
	LR    float64
	Train Summary
	Valid Summary
}

// Brain owns the model, optimizer and schedules for one experiment and
// drives its stages.
type Brain struct {
	cfg       Config
	extractor *fbank.Extractor

	embedding  *nnet.MLP
	classifier *nnet.MLP

	opt   *nnet.SGD
	sched *nnet.NewBob
	ckpt  *Checkpointer

	corrupter augment.Corrupter
	rng       *rand.Rand
	log       *slog.Logger

	startEpoch int

	// EpochHook, when set, observes each completed epoch (run logging,
	// progress tables).
	EpochHook func(EpochResult)
}

// New builds a Brain with freshly initialized weights. corrupter may
// be nil to train without augmentation.
func New(cfg Config, saveDir string, corrupter augment.Corrupter, log *slog.Logger) (*Brain, error) {
	cfg.fillDefaults()
	if log == nil {
		log = slog.Default()
	}
	ckpt, err := NewCheckpointer(saveDir)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	ext := fbank.New(cfg.Fbank)
	inDim := 2 * ext.NumMels()

	return &Brain{
		cfg:        cfg,
		extractor:  ext,
		embedding:  nnet.NewMLP([]int{inDim, cfg.EmbeddingHidden, cfg.EmbeddingDim}, rng),
		classifier: nnet.NewMLP([]int{cfg.EmbeddingDim, 1}, rng),
		opt:        nnet.NewSGD(cfg.LR, cfg.Momentum),
		sched:      nnet.NewBobAnnealer(cfg.LR, cfg.AnnealFactor, cfg.ImprovementThreshold, cfg.Patience),
		ckpt:       ckpt,
		corrupter:  corrupter,
		rng:        rng,
		log:        log,
	}, nil
}

func (b *Brain) params() []*nnet.Param {
	return append(b.embedding.Params(), b.classifier.Params()...)
}

// snapshot captures the current training state for checkpointing.
func (b *Brain) snapshot(epoch int, metric float64) *State {
	return &State{
		Epoch:      epoch,
		Metric:     metric,
		Embedding:  b.embedding.State(),
		Classifier: b.classifier.State(),
		Optimizer:  b.opt.State(),
		Scheduler:  b.sched.State(),
	}
}

func (b *Brain) restore(s *State) error {
	if err := b.embedding.LoadState(s.Embedding); err != nil {
		return err
	}
	if err := b.classifier.LoadState(s.Classifier); err != nil {
		return err
	}
	if err := b.opt.LoadState(s.Optimizer, b.params()); err != nil {
		return err
	}
	b.sched.LoadState(s.Scheduler)
	b.opt.SetLR(b.sched.LR())
	b.startEpoch = s.Epoch
	return nil
}

// forward computes logits for a batch of waveforms: filterbank
// features, per-utterance mean/variance normalization, statistics
// pooling, embedding MLP, classifier logit.
func (b *Brain) forward(sigs [][]float32, lens []float64) (*mat.Dense, error) {
	pooled := mat.NewDense(len(sigs), 2*b.extractor.NumMels(), nil)
	for i, sig := range sigs {
		feats := b.extractor.Extract(sig)
		if len(feats) == 0 {
			return nil, fmt.Errorf("trainer: signal %d too short for one feature frame", i)
		}
		fbank.MeanVarNorm(feats, lens[i])
		pooled.SetRow(i, nnet.StatsPool(feats, lens[i]))
	}
	emb := b.embedding.Forward(pooled)
	return b.classifier.Forward(emb), nil
}

// processBatch runs one batch through the model, accumulating stats
// and, in the train stage, taking one optimizer step.
func (b *Brain) processBatch(stage Stage, batch dataio.Batch, stats *BinaryStats) error {
	sigs, lens, targets := batch.Sigs, batch.Lens, batch.Targets

	// Corrupted copies are appended to the batch with their clean
	// originals' labels and lengths.
	if stage == StageTrain && b.corrupter != nil {
		for i := range batch.Sigs {
			sigs = append(sigs, b.corrupter.Corrupt(batch.Sigs[i], b.rng))
		}
		lens = append(append([]float64(nil), batch.Lens...), batch.Lens...)
		targets = append(append([]float64(nil), batch.Targets...), batch.Targets...)
	}

	out, err := b.forward(sigs, lens)
	if err != nil {
		return err
	}
	logits := make([]float64, len(sigs))
	for i := range logits {
		logits[i] = out.At(i, 0)
	}
	loss, dlogits := nnet.BCEWithLogits(logits, targets)
	stats.Append(loss, logits, targets)

	if stage != StageTrain {
		return nil
	}
	b.embedding.ZeroGrad()
	b.classifier.ZeroGrad()
	demb := b.classifier.Backward(mat.NewDense(len(dlogits), 1, dlogits))
	b.embedding.Backward(demb)
	b.opt.Step(b.params())
	return nil
}

func (b *Brain) runStage(ctx context.Context, stage Stage, ds *dataio.Dataset, shuffle bool) (Summary, error) {
	var stats BinaryStats
	for batch, err := range ds.Batches(b.cfg.BatchSize, shuffle, b.rng) {
		if err != nil {
			return Summary{}, fmt.Errorf("trainer: %s batch: %w", stage, err)
		}
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if err := b.processBatch(stage, batch, &stats); err != nil {
			return Summary{}, err
		}
	}
	return stats.Summarize(), nil
}

// Fit trains for the configured number of epochs, validating after
// each, annealing the learning rate on the validation loss and keeping
// the best checkpoints. A run interrupted mid-training resumes from
// its newest checkpoint.
func (b *Brain) Fit(ctx context.Context, train, valid *dataio.Dataset) error {
	if prev, err := b.ckpt.RecoverIfPossible(); err != nil {
		return err
	} else if prev != nil {
		if err := b.restore(prev); err != nil {
			return fmt.Errorf("trainer: restore checkpoint %s: %w", prev.Name, err)
		}
		b.log.Info("resumed from checkpoint", "name", prev.Name, "epoch", prev.Epoch)
	}

	for epoch := b.startEpoch + 1; epoch <= b.cfg.Epochs; epoch++ {
		trainSum, err := b.runStage(ctx, StageTrain, train, true)
		if err != nil {
			return err
		}
		validSum, err := b.runStage(ctx, StageValid, valid, false)
		if err != nil {
			return err
		}

		oldLR, newLR := b.sched.Anneal(validSum.Loss)
		b.opt.SetLR(newLR)
		if newLR != oldLR {
			b.log.Info("annealed learning rate", "old", oldLR, "new", newLR)
		}

		if err := b.ckpt.SaveAndKeepOnly(b.snapshot(epoch, validSum.Loss), b.cfg.KeepCheckpoints); err != nil {
			return err
		}

		b.log.Info("epoch complete",
			"epoch", epoch,
			"lr", newLR,
			"train_loss", trainSum.Loss,
			"valid_loss", validSum.Loss,
			"valid_acc", validSum.Accuracy,
		)
		if b.EpochHook != nil {
			b.EpochHook(EpochResult{Epoch: epoch, LR: newLR, Train: trainSum, Valid: validSum})
		}
	}
	return nil
}

// Evaluate loads the best checkpoint by validation loss and runs a
// forward-only pass over the test set.
func (b *Brain) Evaluate(ctx context.Context, test *dataio.Dataset) (Summary, error) {
	best, err := b.ckpt.FindBest()
	if err != nil {
		return Summary{}, err
	}
	if best == nil {
		return Summary{}, fmt.Errorf("trainer: no checkpoint to evaluate")
	}
	if err := b.restore(best); err != nil {
		return Summary{}, fmt.Errorf("trainer: restore checkpoint %s: %w", best.Name, err)
	}
	b.log.Info("evaluating best checkpoint", "name", best.Name, "metric", best.Metric)
	return b.runStage(ctx, StageTest, test, false)
}

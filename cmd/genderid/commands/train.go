package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/haivivi/genderid/pkg/augment"
	"github.com/haivivi/genderid/pkg/cli"
	"github.com/haivivi/genderid/pkg/hparams"
	"github.com/haivivi/genderid/pkg/runlog"
	"github.com/haivivi/genderid/pkg/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train <hparams.yaml> [key=value...]",
	Short: "Train the gender classifier and evaluate the best checkpoint",
	Long: `Train runs the full recipe: corpus preparation (if needed), training
with per-epoch validation, learning-rate annealing and best-checkpoint
retention, followed by evaluation on the test split.

An interrupted run restarted with the same hyperparameters resumes from
its newest checkpoint. Every run is recorded in the run log; see
'genderid runs'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHparams(args)
		if err != nil {
			return err
		}
		return runTraining(cmd.Context(), h)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func brainConfig(h *hparams.Hparams) trainer.Config {
	return trainer.Config{
		Fbank:                h.Fbank,
		EmbeddingHidden:      h.EmbeddingHidden,
		EmbeddingDim:         h.EmbeddingDim,
		Epochs:               h.Epochs,
		BatchSize:            h.BatchSize,
		LR:                   h.LR,
		Momentum:             h.Momentum,
		AnnealFactor:         h.AnnealFactor,
		ImprovementThreshold: h.ImprovementThreshold,
		Patience:             h.Patience,
		KeepCheckpoints:      h.KeepCheckpoints,
		Seed:                 h.Seed,
	}
}

func runTraining(ctx context.Context, h *hparams.Hparams) error {
	started := time.Now()
	log := slog.Default()

	if err := ensureData(ctx, h); err != nil {
		return err
	}
	trainManifest, _, _ := h.ManifestPaths()
	if err := os.MkdirAll(h.SaveFolder, 0o755); err != nil {
		return fmt.Errorf("create save folder: %w", err)
	}

	enc, err := loadEncoder(h, trainManifest)
	if err != nil {
		return err
	}
	train, valid, test, err := datasets(h, enc)
	if err != nil {
		return err
	}
	log.Info("datasets loaded",
		"train", train.Len(), "valid", valid.Len(), "test", test.Len())

	corrupter, err := augment.FromConfig(h.Augment, h.SampleRate)
	if err != nil {
		return err
	}

	brain, err := trainer.New(brainConfig(h), h.SaveFolder, corrupter, log)
	if err != nil {
		return err
	}

	rl, err := runlog.Open(h.RunLogFolder)
	if err != nil {
		return err
	}
	defer rl.Close()

	snapshot, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("snapshot hparams: %w", err)
	}
	run, err := rl.Start(ctx, string(snapshot))
	if err != nil {
		return err
	}
	log.Info("run started", "id", run.ID())

	epochTable := cli.NewTable("epoch", "lr", "train loss", "valid loss", "valid acc")
	brain.EpochHook = func(r trainer.EpochResult) {
		epochTable.AddRow(
			fmt.Sprintf("%d", r.Epoch),
			fmt.Sprintf("%.6f", r.LR),
			fmt.Sprintf("%.4f", r.Train.Loss),
			fmt.Sprintf("%.4f", r.Valid.Loss),
			cli.FormatPercent(r.Valid.Accuracy),
		)
		rec := runlog.EpochRecord{Epoch: r.Epoch, LR: r.LR, Train: r.Train, Valid: r.Valid}
		if err := run.AppendEpoch(ctx, rec); err != nil {
			log.Warn("run log append failed", "err", err)
		}
	}

	if err := brain.Fit(ctx, train, valid); err != nil {
		return err
	}
	fmt.Println(epochTable.Render())

	testSum, err := brain.Evaluate(ctx, test)
	if err != nil {
		return err
	}
	fmt.Println(summaryTable("test", testSum).Render())

	log.Info("training complete",
		"run", run.ID(), "elapsed", cli.FormatDuration(time.Since(started)))
	return nil
}

func summaryTable(stage string, s trainer.Summary) *cli.Table {
	t := cli.NewTable("stage", "loss", "accuracy", "precision", "recall", "f1", "utterances")
	t.AddRow(stage,
		fmt.Sprintf("%.4f", s.Loss),
		cli.FormatPercent(s.Accuracy),
		cli.FormatPercent(s.Precision),
		cli.FormatPercent(s.Recall),
		cli.FormatPercent(s.F1),
		fmt.Sprintf("%d", s.Count),
	)
	return t
}

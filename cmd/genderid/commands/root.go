package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "genderid",
	Short: "Speaker-gender identification training recipes",
	Long: `genderid - train a speaker-gender classifier on a LibriSpeech-style corpus.

The workflow mirrors a standard speech recipe:

  1. prepare: scan the corpus, read SPEAKERS.TXT and write the
     train/valid/test JSON manifests.
  2. train: run the training loop with checkpointing and learning-rate
     annealing, then evaluate the best checkpoint on the test split.

All experiment settings live in a YAML hyperparameter file; individual
values can be overridden on the command line:

  genderid train recipes/librispeech/train.yaml number_of_epochs=10
  genderid prepare recipes/librispeech/train.yaml data_folder=/data`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// IsVerbose reports whether --verbose was given.
func IsVerbose() bool { return verbose }

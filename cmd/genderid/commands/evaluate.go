package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/genderid/pkg/trainer"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <hparams.yaml> [key=value...]",
	Short: "Evaluate the best checkpoint on the test split",
	Long: `Evaluate loads the best checkpoint by validation loss from the save
folder and runs a forward-only pass over the test manifest. The
manifests and label encoder must already exist (run 'prepare' or
'train' first).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHparams(args)
		if err != nil {
			return err
		}
		trainManifest, _, _ := h.ManifestPaths()
		enc, err := loadEncoder(h, trainManifest)
		if err != nil {
			return err
		}
		_, _, test, err := datasets(h, enc)
		if err != nil {
			return err
		}

		brain, err := trainer.New(brainConfig(h), h.SaveFolder, nil, slog.Default())
		if err != nil {
			return err
		}
		sum, err := brain.Evaluate(cmd.Context(), test)
		if err != nil {
			return err
		}
		fmt.Println(summaryTable("test", sum).Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

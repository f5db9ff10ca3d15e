package commands

import (
	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <hparams.yaml> [key=value...]",
	Short: "Build train/valid/test manifests from the corpus",
	Long: `Prepare scans the corpus under data_folder, reads SPEAKERS.TXT and
writes the three JSON manifests into output_folder. When all three
manifests already exist the command is a no-op.

If corpus_archive is set and the corpus directory is missing, the
archive is fetched (from s3_bucket when configured, a local path
otherwise) and extracted first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHparams(args)
		if err != nil {
			return err
		}
		return ensureData(cmd.Context(), h)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/genderid/pkg/cli"
	"github.com/haivivi/genderid/pkg/runlog"
)

var runsOutput string

var runsCmd = &cobra.Command{
	Use:   "runs <hparams.yaml> [key=value...]",
	Short: "List recorded training runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHparams(args)
		if err != nil {
			return err
		}
		rl, err := runlog.Open(h.RunLogFolder)
		if err != nil {
			return err
		}
		defer rl.Close()

		metas, err := rl.List(cmd.Context())
		if err != nil {
			return err
		}
		if runsOutput != "" {
			return cli.Output(metas, cli.OutputOptions{Format: cli.OutputFormat(runsOutput)})
		}

		table := cli.NewTable("id", "started")
		for _, m := range metas {
			table.AddRow(m.ID, m.StartedAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Println(table.Render())
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id> <hparams.yaml> [key=value...]",
	Short: "Show the per-epoch records of one run",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]
		h, err := loadHparams(args[1:])
		if err != nil {
			return err
		}
		rl, err := runlog.Open(h.RunLogFolder)
		if err != nil {
			return err
		}
		defer rl.Close()

		recs, err := rl.Epochs(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("no records for run %s", runID)
		}
		if runsOutput != "" {
			return cli.Output(recs, cli.OutputOptions{Format: cli.OutputFormat(runsOutput)})
		}

		table := cli.NewTable("epoch", "lr", "train loss", "valid loss", "valid acc")
		for _, r := range recs {
			table.AddRow(
				fmt.Sprintf("%d", r.Epoch),
				fmt.Sprintf("%.6f", r.LR),
				fmt.Sprintf("%.4f", r.Train.Loss),
				fmt.Sprintf("%.4f", r.Valid.Loss),
				cli.FormatPercent(r.Valid.Accuracy),
			)
		}
		fmt.Println(table.Render())
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().StringVarP(&runsOutput, "output", "o", "", "output format (yaml, json)")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"reshape.dev/pkg/reshape/internal/adapter"
	"reshape.dev/pkg/reshape/internal/controller"
)

var reportDiffFlag bool

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [id]",
		Short: "Show saved run reports",
		Long:  "Without arguments, list saved runs newest first. With an id, show that run.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := adapter.NewFileReportStore(viper.GetString(outputFlagName))
			ctx := context.Background()

			if len(args) == 0 {
				reports, err := store.List()
				if err != nil {
					return err
				}

				for _, r := range reports {
					cmd.Printf("%s  %s  %s  %d result(s)\n",
						r.ID, r.StartedAt.Format(time.RFC3339), r.Pipeline, len(r.Results))
				}

				return nil
			}

			report, err := store.Load(args[0])
			if err != nil {
				return err
			}

			var opts []controller.StartOption
			if reportDiffFlag {
				opts = append(opts, controller.WithDiffs())
			}

			if err := ui.Start(ctx, opts...); err != nil {
				return err
			}
			defer ui.Close(ctx)

			return ui.DisplayReport(ctx, report)
		},
	}

	cmd.Flags().BoolVar(&reportDiffFlag, "diff", false, "include stored diffs")

	return cmd
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"reshape.dev/pkg/reshape/internal/adapter"
	"reshape.dev/pkg/reshape/internal/controller"
	"reshape.dev/pkg/reshape/internal/domain"
	m "reshape.dev/pkg/reshape/internal/model"
)

var runPipelineFlag string
var runParallelFlag int
var runMaxCyclesFlag int
var runMinCyclesFlag int
var runApplyFlag bool
var runDiffFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Run a recipe pipeline against a source tree",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			return runPipeline(cmd, root)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runPipelineFlag, pipelineFlagName, "r", defaultPipelineFile, "pipeline file to run")
	cmd.Flags().IntVarP(&runParallelFlag, parallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for per-file visiting")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), runParallelConfigKey)
	cmd.Flags().IntVar(&runMaxCyclesFlag, maxCyclesFlagName, viper.GetInt(maxCyclesConfigKey), "maximum number of pipeline cycles")
	cmd.Flags().IntVar(&runMinCyclesFlag, minCyclesFlagName, viper.GetInt(minCyclesConfigKey), "minimum number of pipeline cycles")
	cmd.Flags().BoolVar(&runApplyFlag, "apply", false, "write results back to the source tree")
	cmd.Flags().BoolVar(&runDiffFlag, "diff", false, "show unified diffs for every result")
}

func runPipeline(cmd *cobra.Command, root string) error {
	deps := domain.Deps{}

	cache, err := adapter.OpenArtifactCache(viper.GetString(cacheDirConfigKey))
	if err != nil {
		slog.Warn("artifact cache unavailable; version lookups disabled", "error", err)
	} else {
		defer func() { _ = cache.Close() }()

		deps.Versions = cache
	}

	recipe, spec, err := domain.LoadPipeline(runPipelineFlag, registry, deps)
	if err != nil {
		return err
	}

	batch, err := sourceStore.LoadSources(root, viper.GetStringSlice(excludeConfigKey))
	if err != nil {
		return err
	}

	maxCycles, minCycles := cycleBounds(cmd, spec)

	ctx := context.Background()

	var startOpts []controller.StartOption
	if runDiffFlag {
		startOpts = append(startOpts, controller.WithDiffs())
	}

	if err := ui.Start(ctx, startOpts...); err != nil {
		return err
	}

	ectx := m.NewExecutionContext(
		m.WithOnError(func(err error) {
			slog.Error("recipe failure", "error", err)
		}),
		m.WithOnTimeout(func(err error, _ *m.ExecutionContext) {
			slog.Error("recipe step timed out", "error", err)
		}),
	)

	scheduler := domain.NewScheduler(viper.GetInt(runParallelConfigKey), domain.WithObserver(ui))

	started := time.Now()
	run := scheduler.Run(recipe, batch, ectx, maxCycles, minCycles)
	elapsed := time.Since(started)

	ui.Close(ctx)

	store := adapter.NewFileReportStore(viper.GetString(outputFlagName))

	saved, err := store.Save(adapter.BuildRunReport(spec.Name, started, elapsed, run.Results, true))
	if err != nil {
		return err
	}

	slog.Info("run complete", "pipeline", spec.Name, "report", saved.ID, "results", len(run.Results), "elapsed", elapsed)

	if err := ui.DisplayResults(ctx, spec.Name, run.Results, run.Stats); err != nil {
		return err
	}

	if runApplyFlag {
		if err := sourceStore.ApplyResults(root, run.Results); err != nil {
			return err
		}

		cmd.Printf("applied %d result(s) to %s\n", len(run.Results), root)
	}

	cmd.Printf("report saved as %s\n", saved.ID)

	return nil
}

// cycleBounds resolves cycle limits: explicit flags win over the pipeline
// file, which wins over config defaults.
func cycleBounds(cmd *cobra.Command, spec *domain.PipelineSpec) (int, int) {
	maxCycles := viper.GetInt(maxCyclesConfigKey)
	if spec.MaxCycles > 0 {
		maxCycles = spec.MaxCycles
	}

	if cmd.Flags().Changed(maxCyclesFlagName) {
		maxCycles = runMaxCyclesFlag
	}

	minCycles := viper.GetInt(minCyclesConfigKey)
	if spec.MinCycles > 0 {
		minCycles = spec.MinCycles
	}

	if cmd.Flags().Changed(minCyclesFlagName) {
		minCycles = runMinCyclesFlag
	}

	return maxCycles, minCycles
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frameworks/courierplan/internal/batch"
	"frameworks/courierplan/internal/config"
	"frameworks/courierplan/internal/directions"
	"frameworks/courierplan/internal/evaluator"
	"frameworks/courierplan/internal/ioformat"
	"frameworks/courierplan/internal/logging"
)

func newPlanCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		priority   string
		apiKeyEnv  string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Cluster, sequence, and measure a batch of delivery points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, inputPath, outputPath, priority, apiKeyEnv)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON array of raw order records (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "path to write the assembled waypoint sequence and summary (required)")
	cmd.Flags().StringVar(&priority, "priority", string(directions.PriorityTime), "route priority: TIME|DISTANCE|RECOMMEND")
	cmd.Flags().StringVar(&apiKeyEnv, "api-key-env", "KAKAO_API_KEY", "name of the environment variable holding the directions provider key")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runPlan(cmd *cobra.Command, inputPath, outputPath, priority, apiKeyEnv string) error {
	switch priority {
	case string(directions.PriorityTime), string(directions.PriorityDistance), string(directions.PriorityRecommend):
	default:
		return fmt.Errorf("invalid --priority %q: must be TIME, DISTANCE, or RECOMMEND", priority)
	}

	bootstrap := logging.NewWithComponent(logging.InfoLevel, "courierplan")
	settings, err := config.Load(bootstrap, apiKeyEnv)
	if err != nil {
		return err
	}

	level := settings.LogLevel
	if verbose {
		level = logging.DebugLevel
	}
	logger := logging.NewWithComponent(level, "courierplan")

	inFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inFile.Close()

	records, err := ioformat.ReadInput(inFile)
	if err != nil {
		return err
	}
	points, unresolved := ioformat.ToPoints(records)
	if len(unresolved) > 0 {
		logger.WithFields(logging.Fields{"count": len(unresolved)}).Warn("input records without coordinates were skipped; geocoding is out of scope for this binary")
	}

	coordinator := batch.NewCoordinator(batch.Config{
		DirectionsBaseURL: settings.DirectionsBaseURL,
		APIKey:            settings.APIKey,
		Logger:            logger,
		RateLimit:         settings.RateLimit,
		EvaluatorConfig: evaluator.Config{
			WorkerPoolSize: settings.WorkerPoolSize,
			Priority:       directions.Priority(priority),
		},
	})

	waypoints, summary, report := coordinator.Plan(context.Background(), points)
	if len(report.Rejected) > 0 {
		logger.WithFields(logging.Fields{"count": len(report.Rejected)}).Warn("rejected points outside regional bounds or invalid coordinates")
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer outFile.Close()

	if err := ioformat.WriteOutput(outFile, waypoints, summary); err != nil {
		return err
	}

	if summary.FailureCount > 0 || len(summary.FailureMessages) > 0 {
		return fmt.Errorf("batch %s completed with %d failed cluster(s)", summary.BatchID, summary.FailureCount)
	}
	return nil
}

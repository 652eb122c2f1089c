package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage background tasks",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background task scheduler",
	Long: `Runs the scheduler in the foreground until interrupted. Scheduled
tasks, like retrying failed documents, execute at their configured
intervals.`,
	Args: cobra.NoArgs,
	RunE: runScheduleRun,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled tasks and their last results",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStatus,
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry all failed documents now",
	Args:  cobra.NoArgs,
	RunE:  runRetry,
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(retryCmd)
}

func runScheduleRun(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if !schedulerConfig.Enabled {
		return errors.New("scheduler is disabled in configuration")
	}

	cmd.Println("Scheduler running, press Ctrl+C to stop.")

	err := scheduler.Start(cmd.Context())
	if stopErr := scheduler.Stop(); stopErr != nil {
		return stopErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if store == nil {
		return errors.New("storage not configured")
	}

	ctx := cmd.Context()
	tasks, err := store.SchedulerStore().ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks recorded.")
		return nil
	}

	for i := range tasks {
		task := &tasks[i]
		state := "disabled"
		if task.Enabled {
			state = "enabled"
		}
		cmd.Printf("  %s (%s, every %s)\n", task.ID, state, task.Interval)
		if !task.LastRun.IsZero() {
			cmd.Printf("    Last run:     %s\n", task.LastRun.Format("2006-01-02 15:04:05"))
		}
		if !task.LastSuccess.IsZero() {
			cmd.Printf("    Last success: %s\n", task.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if task.LastError != "" {
			cmd.Printf("    Last error:   %s\n", task.LastError)
		}

		results, err := store.SchedulerStore().ListResults(ctx, task.ID, 3)
		if err != nil {
			return fmt.Errorf("listing results for %s: %w", task.ID, err)
		}
		for _, res := range results {
			outcome := "ok"
			if !res.Success {
				outcome = "failed: " + res.Error
			}
			cmd.Printf("    %s: %s (%d items)\n",
				res.StartedAt.Format("2006-01-02 15:04:05"), outcome, res.ItemsProcessed)
		}
	}
	return nil
}

func runRetry(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("pipeline orchestrator not configured")
	}

	retried, err := orchestrator.RetryFailed(cmd.Context())
	if err != nil {
		return fmt.Errorf("retrying failed documents: %w", err)
	}

	cmd.Printf("Retried %d documents.\n", retried)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/scheduler"
	"github.com/wonny/mdhealth/internal/scheduler/jobs"
	"github.com/wonny/mdhealth/pkg/config"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/mdhealth scheduler start
  go run ./cmd/mdhealth scheduler list
  go run ./cmd/mdhealth scheduler run quality_analysis`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- quality_analysis: ANALYSIS_SCHEDULE (기본 6시간마다)
- connection_check: 15분마다 (IBP / Postgres / Redis 연결 확인)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the analysis and connection jobs for a
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.WithRetry(2, 30*time.Second))

	if err := sched.AddJob(jobs.NewAnalysisJob(a.service, a.cfg.Analysis.Schedule, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewConnectionCheckJob(connectionChecks(a), a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

// connectionChecks probes whatever the configured source depends on
func connectionChecks(a *app) map[string]jobs.Check {
	checks := make(map[string]jobs.Check)
	if a.db != nil {
		checks["postgres"] = a.db.Ping
	}
	if a.redis.Enabled() {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Redis().Ping(ctx).Err()
		}
	}
	if a.cfg.Source.Kind == config.SourceIBP {
		client := newIBPClient(a)
		checks["ibp"] = client.TestConnection
	}
	return checks
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== mdhealth Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(cmd, sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	printJobs(cmd, sched)
	return nil
}

func printJobs(cmd *cobra.Command, sched *scheduler.Scheduler) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle("Registered jobs")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job", "Schedule", "Next Run"})

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{name, st.Schedule, next})
	}
	t.Render()
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	res, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("❌ job %s failed after %d attempt(s), %v: %s", jobName, res.Attempts, res.Duration.Round(time.Millisecond), res.Error)
	}
	fmt.Printf("✅ Job %s completed in %v\n", jobName, res.Duration.Round(time.Millisecond))
	return nil
}

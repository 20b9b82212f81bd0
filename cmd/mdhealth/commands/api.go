package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/api"
	"github.com/wonny/mdhealth/internal/api/handlers"
	"github.com/wonny/mdhealth/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 시작 시 1회 분석 실행
- 품질 점수/보고서/권고/트렌드 조회 엔드포인트 제공
- 주기적 재분석 스케줄 실행 (--schedule=false 로 비활성화)
- WebSocket 으로 분석 결과 푸시

Endpoints:
  GET   /health
  GET   /api/quality/scores
  GET   /api/quality/health
  GET   /api/quality/health/{type}
  GET   /api/quality/summary
  GET   /api/quality/recommendations?priority=High
  GET   /api/quality/trends?seed=42
  GET   /api/quality/export/issues.csv
  GET   /api/quality/export/recommendations.csv
  POST  /api/quality/analyze
  PATCH /api/data/{type}/{id}
  GET   /ws/runs
  GET   /metrics

Example:
  go run ./cmd/mdhealth api
  go run ./cmd/mdhealth api --port 8080 --source ibp`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiSchedule bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default from PORT)")
	apiCmd.Flags().BoolVar(&apiSchedule, "schedule", true, "run the periodic analysis and connection jobs")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== mdhealth API Server ===")

	// 1. Wire components
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Handlers
	h := api.Handlers{
		Quality: handlers.NewQualityHandler(a.service, redis.NewCache(a.redis, "mdhealth"), cfg.Source.DemoSeed, log),
		Data:    handlers.NewDataHandler(a.service, log),
		Stream:  handlers.NewStreamHandler(a.service, log),
		Source:  a.service.SourceName(),
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}

	// 3. Router + server
	server := api.New(cfg, log, api.NewRouter(h, log))

	// 4. Initial analysis (비동기: 서버는 즉시 응답 가능, 결과 전까지 503)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := a.service.Run(ctx); err != nil {
			log.WithError(err).Error("Initial analysis failed")
		}
	}()

	// 5. Scheduler
	if apiSchedule {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s (source: %s)\n", cfg.Port, a.service.SourceName())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

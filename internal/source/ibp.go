package source

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/logger"
)

// IBPClient is the part of the IBP client the source uses
type IBPClient interface {
	FetchMasterData(ctx context.Context, dataType string) (*contracts.Table, error)
	SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error
}

// IBPSource fetches each dataset type from SAP IBP with a bounded worker pool
type IBPSource struct {
	client  IBPClient
	workers int
	logger  *logger.Logger
}

// NewIBP creates an IBP source
func NewIBP(client IBPClient, workers int, log *logger.Logger) *IBPSource {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &IBPSource{
		client:  client,
		workers: workers,
		logger:  log.WithField("module", "ibp_source"),
	}
}

func (s *IBPSource) Name() string { return "ibp" }

// fetchResult represents the result of one dataset fetch
type fetchResult struct {
	dataType string
	table    *contracts.Table
	err      error
}

// Load fetches types concurrently. A failed fetch is logged and the type left absent.
func (s *IBPSource) Load(ctx context.Context, types []string) (map[string]*contracts.Table, error) {
	start := time.Now()
	out := make(map[string]*contracts.Table, len(types))
	if len(types) == 0 {
		return out, nil
	}

	typeCh := make(chan string, len(types))
	resultCh := make(chan fetchResult, len(types))

	var wg sync.WaitGroup
	for i := 0; i < min(s.workers, len(types)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range typeCh {
				tbl, err := s.client.FetchMasterData(ctx, t)
				resultCh <- fetchResult{dataType: t, table: tbl, err: err}
			}
		}()
	}

	for _, t := range types {
		typeCh <- t
	}
	close(typeCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	failed := 0
	for r := range resultCh {
		if r.err != nil {
			failed++
			s.logger.WithDataset(r.dataType).WithError(r.err).Warn("IBP fetch failed, dataset treated as absent")
			continue
		}
		out[r.dataType] = r.table
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(types),
		"loaded":    len(out),
		"failed":    failed,
		"duration":  time.Since(start).String(),
	}).Info("IBP load completed")

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// SubmitCorrection patches the record in IBP
func (s *IBPSource) SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error {
	return s.client.SubmitCorrection(ctx, dataType, recordID, fields)
}

// Package source loads master data tables from the configured system of record.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/external/ibp"
	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/database"
	"github.com/wonny/mdhealth/pkg/httputil"
	"github.com/wonny/mdhealth/pkg/logger"
	"github.com/wonny/mdhealth/pkg/redis"
)

// ErrCorrectionsUnsupported is returned when the source cannot write corrections back
var ErrCorrectionsUnsupported = errors.New("data source does not accept corrections")

// Deps are the shared clients a source may need; unused ones may be nil
type Deps struct {
	DB     *database.DB
	Redis  *redis.Client
	Logger *logger.Logger
}

// New builds the source selected by cfg.Source.Kind.
// Remote sources are wrapped in a Redis cache when Redis is enabled.
// ⭐ SSOT: 데이터 소스 선택은 여기서만
func New(cfg *config.Config, deps Deps) (contracts.DataSource, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var src contracts.DataSource
	switch cfg.Source.Kind {
	case config.SourceDemo:
		return NewDemo(cfg.Source.DemoSeed, nil), nil

	case config.SourceIBP:
		src = NewIBP(NewIBPClient(cfg, deps.Redis, log), cfg.Analysis.Workers, log)

	case config.SourcePostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("postgres source: database not connected")
		}
		src = NewPostgres(deps.DB, log)

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source.Kind)
	}

	if deps.Redis.Enabled() && cfg.Source.CacheTTL > 0 {
		src = NewCached(src, redis.NewCache(deps.Redis, "mdhealth"), cfg.Source.CacheTTL, log)
	}
	return src, nil
}

// NewIBPClient builds an IBP client whose requests share the configured rate limit.
// With Redis the limit is global across processes, otherwise per process.
func NewIBPClient(cfg *config.Config, rc *redis.Client, log *logger.Logger) *ibp.Client {
	httpClient := httputil.New(cfg, log)
	if rc.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "mdhealth"), redis.IBPRateLimit(cfg.IBP.RateLimit))
	} else {
		httpClient.WithLocalRateLimit(cfg.IBP.RateLimit)
	}
	return ibp.NewClient(cfg.IBP, httpClient, log)
}

// Missing lists requested types the source did not deliver, in request order
func Missing(types []string, got map[string]*contracts.Table) []string {
	var out []string
	for _, t := range types {
		if _, ok := got[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// SubmitCorrection forwards to src when it is a Corrector
func SubmitCorrection(ctx context.Context, src contracts.DataSource, dataType, recordID string, fields map[string]any) error {
	c, ok := src.(contracts.Corrector)
	if !ok {
		return fmt.Errorf("%s: %w", src.Name(), ErrCorrectionsUnsupported)
	}
	return c.SubmitCorrection(ctx, dataType, recordID, fields)
}

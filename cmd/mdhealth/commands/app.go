package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/mdhealth/internal/health"
	"github.com/wonny/mdhealth/internal/metrics"
	"github.com/wonny/mdhealth/internal/quality"
	"github.com/wonny/mdhealth/internal/source"
	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/database"
	"github.com/wonny/mdhealth/pkg/logger"
	"github.com/wonny/mdhealth/pkg/redis"
)

// app holds the wired components shared by commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	metrics  *metrics.Metrics
	analyzer *quality.Analyzer
	service  *health.Service
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if sourceKind != "" {
		cfg.Source.Kind = strings.ToLower(sourceKind)
	}
	if len(dataTypes) > 0 {
		cfg.Source.Types = dataTypes
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// newApp wires config, logger, optional Postgres/Redis, analyzer, source and service.
// Postgres is connected only for the postgres source.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg)
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 1. Redis (disabled client when REDIS_ENABLED=false)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc

	// 2. Database (postgres source only)
	if cfg.Source.Kind == config.SourcePostgres {
		db, err := database.New(cfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
	}

	// 3. Profiles
	registry := quality.DefaultRegistry()
	if cfg.Analysis.ProfilesFile != "" {
		if err := registry.LoadFile(cfg.Analysis.ProfilesFile); err != nil {
			a.close()
			return nil, fmt.Errorf("load profiles: %w", err)
		}
		log.WithField("file", cfg.Analysis.ProfilesFile).Info("Dataset profiles loaded")
	}

	a.analyzer = quality.NewAnalyzer(registry,
		quality.WithWorkers(cfg.Analysis.Workers),
		quality.WithLogger(log),
	)

	// 4. Source
	src, err := source.New(cfg, source.Deps{DB: a.db, Redis: a.redis, Logger: log})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create source: %w", err)
	}
	// 5. Metrics + service
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}
	a.service = health.NewService(src, a.analyzer, cfg.Source.Types, a.metrics, log)

	log.WithFields(map[string]interface{}{
		"source":   src.Name(),
		"types":    len(cfg.Source.Types),
		"profiles": registry.Fingerprint(),
		"redis":    a.redis.Enabled(),
	}).Debug("Application wired")

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

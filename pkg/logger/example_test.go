package logger_test

import (
	"errors"
	"os"

	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/logger"
)

// Example_basic shows the config-driven constructor
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("suppressed at info level")
	log.Info("analysis service started")
	log.Warnf("dataset %q returned no rows", "Suppliers")
}

// Example_withFields attaches structured context to every entry
func Example_withFields() {
	log := logger.NewWithWriter(os.Stderr, "info")

	runLog := log.WithComponent("health").WithFields(map[string]interface{}{
		"run_id":   "0f6b3c1e",
		"datasets": 6,
	})
	runLog.Info("analysis run finished")

	runLog.WithDataset("Products").Infof("aggregate score %.2f", 8.42)
}

// Example_withError logs a failure with its cause
func Example_withError() {
	log := logger.NewWithWriter(os.Stderr, "error")

	err := errors.New("csrf token request returned 401")
	log.WithError(err).
		WithField("data_type", "Locations").
		Error("master data fetch failed")
}

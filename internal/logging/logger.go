// Package logging builds the zap loggers shared by the API server and
// the scrape/audit pipeline commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for the given mode. Development mode writes
// colored console output for local runs; production mode writes JSON
// tagged with a service field so pipeline runs are filterable
// alongside API traffic.
func New(development bool) (*zap.Logger, error) {
	mode := "production"
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]interface{}{"service": "foghorn"}
	if development {
		mode = "development"
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s logger: %w", mode, err)
	}
	return logger, nil
}

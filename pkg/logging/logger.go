// Package logging builds the process-wide zap logger and provides helpers
// for keeping credentials out of log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger appropriate for the given environment.
// "local" gets the human-readable development config; everything else gets
// the JSON production config.
func NewLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// Package logging builds the process logger and scrubs credentials from
// anything that is about to be logged. Every other package receives a
// *zap.Logger by injection and never constructs its own.
package logging

import (
	"go.uber.org/zap"
)

// New returns a logger appropriate for the environment. "local" gets the
// human-readable development encoder; everything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

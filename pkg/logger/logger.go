package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger for the given application environment.
// Production environments get JSON output, everything else gets the
// human-readable development encoder.
func New(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewNamed builds a logger for the environment and names it after the service.
func NewNamed(appEnv, service string) (*zap.Logger, error) {
	l, err := New(appEnv)
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}

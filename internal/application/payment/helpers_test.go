package payment

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func zapLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// observe swaps the service logger for one recording warnings and errors
func (f *fixture) observe() *observer.ObservedLogs {
	core, logs := observer.New(zapcore.WarnLevel)
	f.svc.logger = zap.New(core)
	return logs
}

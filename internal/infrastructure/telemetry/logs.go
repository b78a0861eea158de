package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bridgeLogger returns base with a second core that ships every entry at
// base's level or above to the OTLP log pipeline.
func bridgeLogger(base *zap.Logger, provider log.LoggerProvider, name string) *zap.Logger {
	otelCore := &levelFilterCore{
		Core: otelzap.NewCore(name, otelzap.WithLoggerProvider(provider)),
		min:  minimumLevel(base.Core()),
	}
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, otelCore)
	}))
}

func minimumLevel(core zapcore.Core) zapcore.Level {
	for lvl := zapcore.DebugLevel; lvl <= zapcore.FatalLevel; lvl++ {
		if core.Enabled(lvl) {
			return lvl
		}
	}
	return zapcore.FatalLevel
}

// levelFilterCore keeps the bridge from exporting entries the base logger drops
type levelFilterCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), min: c.min}
}

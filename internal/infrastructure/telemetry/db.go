package telemetry

import (
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InstrumentDB installs the otelgorm plugin so every query becomes a client
// span. Query arguments stay out of spans unless DBLogFullSQL is set, and
// pool statistics are only reported while metrics are exporting.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, dbName string, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(dbName)}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if !cfg.MetricsEnabled {
		opts = append(opts, otelgorm.WithoutMetrics())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	logger.Info("Database tracing enabled",
		zap.String("db", dbName),
		zap.Bool("full_sql", cfg.DBLogFullSQL),
	)
	return nil
}

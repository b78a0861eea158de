package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/migration"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/models"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence/sitescope"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the storefront's gorm handle. Repositories take Database.DB.
type Database struct {
	DB     *gorm.DB
	driver string
}

// Open connects with the given gorm logger, installs the site guard and
// sizes the pool. sqlite runs with a single connection.
func Open(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != "sqlite",
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if err := sitescope.Register(db); err != nil {
		return nil, fmt.Errorf("register site guard: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// concurrent writers would hit "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	d := &Database{DB: db, driver: cfg.Driver}
	if err := d.Ping(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

// PrepareSchema builds the sqlite schema from the models, or applies the
// embedded SQL migrations to postgres when migrate is set.
func (d *Database) PrepareSchema(migrate bool, log *zap.Logger) error {
	if d.driver == "sqlite" {
		if err := d.DB.AutoMigrate(models.AllModels()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	if !migrate {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	// the migrator is not closed: that would close the shared pool
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// Ping backs the database health check.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ForSite returns a handle limited to one site's rows. A nil site makes
// every statement on the result fail.
func (d *Database) ForSite(siteID uuid.UUID) *gorm.DB {
	return d.DB.Scopes(sitescope.Scope(siteID))
}

// Package db opens and instruments the shared GORM connection. One *gorm.DB
// is provided app-wide; per-request sessions and transactions are carved out
// of it by the repository layer.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

// Module provides the instrumented *gorm.DB.
var Module = fx.Module("db",
	fx.Provide(Open),
	fx.Invoke(registerHooks),
)

// Open connects to the configured backend, applies pool limits and registers
// the tracing and metrics plugins.
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(DefaultGormLoggerConfig()),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
		return nil, fmt.Errorf("register otelgorm plugin: %w", err)
	}

	if cfg.MetricsPort != 0 {
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.Name,
			RefreshInterval: 15,
			StartServer:     true,
			HTTPServerPort:  cfg.MetricsPort,
		})); err != nil {
			return nil, fmt.Errorf("register prometheus plugin: %w", err)
		}
	}

	return conn, nil
}

func registerHooks(lc fx.Lifecycle, conn *gorm.DB, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			log.Info("closing database connection")
			return sqlDB.Close()
		},
	})
}

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/campuskit/campuskit/pkg/db"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	Logger LoggerConfig
	Otel   OtelConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetricsPort     int64
}

type LoggerConfig struct {
	Level string
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
	Protocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "campuskit"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		Logger: LoggerConfig{
			Level: getenv("LOG_LEVEL", "info"),
		},
		Otel: OtelConfig{
			Enabled:  getenvBool("OTEL_ENABLED", false),
			Endpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
			Protocol: strings.ToLower(getenv("OTLP_PROTOCOL", "grpc")),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "campuskit"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 25)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 1800)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 300)),
		DBMetricsPort:     getenvInt64("DATABASE_METRICS_PORT", 0),
	}
}

// DBConfig maps the flat env config onto the persistence bootstrap.
func DBConfig(cfg Config) db.Config {
	return db.Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		MetricsPort:     uint32(cfg.DBMetricsPort),
	}
}

// Module wires env config plus the hot-reloadable platform settings.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(DBConfig),
	fx.Provide(NewSettingsHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

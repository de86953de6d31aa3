package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/campuskit/campuskit/internal/config"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "campuskit"
	}
	environment := getenv("DEPLOYMENT_ENV", cfg.Environment)
	version := getenv("SERVICE_VERSION", cfg.AppVersion)
	otlpEndpoint := getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	otlpProtocol := strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", cfg.Otel.Protocol)))

	samplingRatio := getenvFloat("OTEL_SAMPLING_RATIO", 0.1)
	enabled := getenvBool("OTEL_ENABLED", cfg.Otel.Enabled)

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(environment),
		Version:              strings.TrimSpace(version),
		OtelEnabled:          enabled,
		OtelExporterEndpoint: strings.TrimSpace(otlpEndpoint),
		OtelExporterProtocol: otlpProtocol,
		OtelSamplingRatio:    samplingRatio,
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
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

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

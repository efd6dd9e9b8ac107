package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultSchemaURL is the MCP registry schema for server.json manifests.
const DefaultSchemaURL = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Config is the full runtime configuration of the validator.
type Config struct {
	Service       ServiceConfig
	Validation    ValidationConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies this process to downstream consumers.
type ServiceConfig struct {
	Principal string
}

// ValidationConfig holds the inputs of a validation run.
type ValidationConfig struct {
	SchemaURL    string
	DataPath     string
	FetchTimeout time.Duration
}

// KafkaConfig controls publishing of validation result events.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ObservabilityConfig holds logging and metrics export settings.
type ObservabilityConfig struct {
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
	PushgatewayURL  string
	MetricsJob      string
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-config-validator"),
		},
		Validation: ValidationConfig{
			SchemaURL:    envOrDefault("SCHEMA_URL", DefaultSchemaURL),
			DataPath:     envOrDefault("DATA_PATH", "server.json"),
			FetchTimeout: envOrDefaultDuration("FETCH_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers: envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:   envOrDefault("KAFKA_TOPIC", "config.validation.result"),
		},
		Observability: ObservabilityConfig{
			LogLevel:        envOrDefault("LOG_LEVEL", "warn"),
			LogFormat:       envOrDefault("LOG_FORMAT", "console"),
			MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
			PushgatewayURL:  os.Getenv("METRICS_PUSHGATEWAY_URL"),
			MetricsJob:      envOrDefault("METRICS_JOB", "server_json_validator"),
		},
	}
}

// BindFlags registers command-line overrides for cfg on fs.
// Values already present in cfg become the flag defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Validation.SchemaURL, "schema-url", cfg.Validation.SchemaURL, "URL of the JSON Schema to validate against")
	fs.StringVar(&cfg.Validation.DataPath, "data-path", cfg.Validation.DataPath, "path of the document to validate")
	fs.DurationVar(&cfg.Validation.FetchTimeout, "timeout", cfg.Validation.FetchTimeout, "timeout for fetching the schema")
	fs.StringVar(&cfg.Observability.LogLevel, "log-level", cfg.Observability.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Observability.LogFormat, "log-format", cfg.Observability.LogFormat, "log format (console, json)")
	fs.StringVar(&cfg.Observability.MetricsTextfile, "metrics-file", cfg.Observability.MetricsTextfile, "write Prometheus metrics to this textfile")
	fs.StringVar(&cfg.Observability.PushgatewayURL, "pushgateway-url", cfg.Observability.PushgatewayURL, "push metrics to this Prometheus Pushgateway")
	fs.StringSliceVar(&cfg.Kafka.Brokers, "kafka-brokers", cfg.Kafka.Brokers, "Kafka brokers for validation result events")
}

// ApplyArgs lets a positional argument override the data path.
func (c *Config) ApplyArgs(args []string) {
	if len(args) > 0 && args[0] != "" {
		c.Validation.DataPath = args[0]
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

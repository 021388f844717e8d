package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"munger"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	// Rows between progress log lines. 0 disables progress logs.
	ProgressInterval int `env:"PROGRESS_INTERVAL" env-default:"10000"`
	// CSV output line terminator
	CSVUseCRLF bool `env:"CSV_USE_CRLF" env-default:"true"`
	// Header of the error column for writers that include errors
	ErrorsFieldName string `env:"ERRORS_FIELD_NAME" env-default:"ValidationErrors"`
	// Joins source stem and writer suffix
	SuffixSeparator string `env:"SUFFIX_SEPARATOR" env-default:"-"`

	// Prometheus textfile written after each run. Empty disables it.
	MetricsTextfile string `env:"METRICS_TEXTFILE" env-default:""`

	// Tracing. Empty endpoint disables export.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	OTLPProtocol string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	// key:value pairs, comma separated
	OTLPHeaders      map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" env-separator:","`
	OTLPTimeoutMs    int               `env:"OTEL_EXPORTER_OTLP_TIMEOUT_MS" env-default:"10000"`
	TraceSampleRatio float64           `env:"OTEL_TRACES_SAMPLE_RATIO" env-default:"1"`

	// Kafka outcome events
	KafkaEventsEnabled  bool     `env:"KAFKA_EVENTS_ENABLED" env-default:"false"`
	KafkaBrokers        []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaEventsTopic    string   `env:"KAFKA_EVENTS_TOPIC" env-default:"munger.outcomes"`
	KafkaBatchSize      int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeoutMs int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks   int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression    string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}

// Load reads an optional .env-style file and then the process environment.
// A missing env file is not an error.
func Load(envFiles ...string) (Config, error) {
	var cfg Config

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/ggondim/simple-service-doc-converter/internal/yamlutil"
)

// Config holds all service configuration. Values come from the
// environment (with .env support), optionally overlaid by a strict
// YAML file, then by CLI flags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Converter ConverterConfig `yaml:"converter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0" yaml:"host"`
	Port int    `env:"SERVER_PORT" envDefault:"8080" yaml:"port"`

	// ReadHeaderTimeout guards against slow-header clients. Body reads
	// are deliberately unbounded here: staging large uploads is capped
	// by the pipeline's own deadline instead.
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s" yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s" yaml:"shutdownTimeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ConverterConfig struct {
	// Binary is the external converter executable, resolved via PATH
	// when not absolute.
	Binary string `env:"CONVERTER_BIN" envDefault:"soffice" yaml:"binary"`

	// Workers bounds concurrent converter subprocesses.
	Workers int `env:"CONVERTER_WORKERS" envDefault:"2" yaml:"workers"`

	// TempDir overrides workspace placement (empty = auto).
	TempDir string `env:"CONVERTER_TEMP_DIR" envDefault:"" yaml:"tempDir"`

	// OperationTimeout is the uniform per-stage deadline. Zero keeps
	// the library default.
	OperationTimeout time.Duration `env:"CONVERTER_TIMEOUT" envDefault:"0s" yaml:"operationTimeout"`

	// TerminationGrace is the window between graceful signal and kill.
	TerminationGrace time.Duration `env:"CONVERTER_GRACE" envDefault:"2s" yaml:"terminationGrace"`

	// BufferLimit is the staged-input size above which artifacts stay
	// on disk. Zero keeps the library default.
	BufferLimit int64 `env:"CONVERTER_BUFFER_LIMIT" envDefault:"0" yaml:"bufferLimit"`

	// Echo mirrors converter output to the service's own streams.
	Echo bool `env:"CONVERTER_ECHO" envDefault:"false" yaml:"echo"`

	// NativeEngine enables the in-process Markdown/HTML to PDF path
	// (headless Chrome) instead of the subprocess for those pairs.
	NativeEngine bool `env:"CONVERTER_NATIVE_ENGINE" envDefault:"false" yaml:"nativeEngine"`
}

type TelemetryConfig struct {
	// RedisAddr enables the Redis telemetry mirror when non-empty.
	RedisAddr     string `env:"TELEMETRY_REDIS_ADDR" envDefault:"" yaml:"redisAddr"`
	RedisPassword string `env:"TELEMETRY_REDIS_PASSWORD" envDefault:"" yaml:"redisPassword"`
	RedisDB       int    `env:"TELEMETRY_REDIS_DB" envDefault:"0" yaml:"redisDB"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`
	// json or console
	Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`
}

// LoadConfig builds the configuration: .env (if present), environment
// variables, then a strict YAML overlay when configPath is non-empty.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	return cfg, nil
}

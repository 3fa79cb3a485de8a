package config

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LoggingConfig controls the process-wide logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ResolverConfig selects how packets are grouped into flows.
type ResolverConfig struct {
	// Mode is "single" (whole capture is one flow) or "five_tuple".
	Mode      string   `yaml:"mode"`
	KeyFields []string `yaml:"key_fields"`
}

// ClassifierConfig selects and tunes the statistical model.
type ClassifierConfig struct {
	Type            string `yaml:"type"`
	NumTrees        int    `yaml:"num_trees"`
	MaxDepth        int    `yaml:"max_depth"`
	MinSamplesSplit int    `yaml:"min_samples_split"`
	Seed            int64  `yaml:"seed"`
}

// TrainingConfig holds the held-out evaluation split policy.
type TrainingConfig struct {
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`
}

// ModelStoreConfig selects where trained models are persisted.
type ModelStoreConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
	// ModelPath is the default file path (or model name for sqlite) used by the API server.
	ModelPath string `yaml:"model_path"`
}

// ManagerConfig sizes the batch worker pool.
type ManagerConfig struct {
	NumWorkers       int `yaml:"num_workers"`
	SizeOfJobChannel int `yaml:"size_of_job_channel"`
}

// ClickHouseConfig holds the connection details for the ClickHouse verdict sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SinkDef defines a single verdict sink.
type SinkDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       ProbeConfig      `yaml:"nats"`
	RootPath   string           `yaml:"root_path"`
}

// APIConfig holds the settings for the HTTP and gRPC servers.
type APIConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	GRPCListenAddr  string `yaml:"grpc_listen_addr"`
	MaxCaptureBytes int64  `yaml:"max_capture_bytes"`
}

// ProbeConfig holds the NATS connection used to distribute verdicts.
type ProbeConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Training   TrainingConfig   `yaml:"training"`
	ModelStore ModelStoreConfig `yaml:"model_store"`
	Manager    ManagerConfig    `yaml:"manager"`
	Sinks      []SinkDef        `yaml:"sinks"`
	API        APIConfig        `yaml:"api"`
	Probe      ProbeConfig      `yaml:"probe"`
}

// Default returns a complete configuration that reproduces the reference
// behaviour: single-flow grouping and a 100-tree forest with an 80/20 split.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Resolver: ResolverConfig{
			Mode:      "single",
			KeyFields: []string{"SrcIP", "DstIP", "SrcPort", "DstPort", "Protocol"},
		},
		Classifier: ClassifierConfig{
			Type:            "forest",
			NumTrees:        100,
			MinSamplesSplit: 2,
			Seed:            42,
		},
		Training:   TrainingConfig{TestFraction: 0.2, Seed: 42},
		ModelStore: ModelStoreConfig{Type: "file", SQLitePath: "models.sqlite", ModelPath: "model.gob"},
		Manager:    ManagerConfig{NumWorkers: 4, SizeOfJobChannel: 64},
		API: APIConfig{
			ListenAddr:      ":8080",
			GRPCListenAddr:  ":9090",
			MaxCaptureBytes: 64 << 20,
		},
		Probe: ProbeConfig{NATSURL: "nats://127.0.0.1:4222", Subject: "flowsentinel.verdicts"},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Keys missing from the file keep their Default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and out-of-range settings.
func (c *Config) Validate() error {
	switch c.Resolver.Mode {
	case "single", "five_tuple":
	default:
		return fmt.Errorf("unknown resolver mode: '%s'", c.Resolver.Mode)
	}
	if c.Training.TestFraction < 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("training test_fraction must be in [0, 1), got %v", c.Training.TestFraction)
	}
	switch c.ModelStore.Type {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown model_store type: '%s'", c.ModelStore.Type)
	}
	if c.Classifier.NumTrees < 0 || c.Classifier.MaxDepth < 0 {
		return fmt.Errorf("classifier num_trees and max_depth must not be negative")
	}
	if c.Manager.NumWorkers <= 0 {
		return fmt.Errorf("manager num_workers must be positive, got %d", c.Manager.NumWorkers)
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "clickhouse", "nats":
		case "file":
			if s.Enabled && s.RootPath == "" {
				return fmt.Errorf("file sink needs a root_path")
			}
		default:
			return fmt.Errorf("unknown sink type: '%s'", s.Type)
		}
	}
	return nil
}

// ApplyLogging configures the global logger from the logging section.
func ApplyLogging(cfg LoggingConfig) error {
	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: '%s'", cfg.Format)
	}
	return nil
}

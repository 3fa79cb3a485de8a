package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_RepositoryConfig(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Resolver.Mode != "single" {
		t.Errorf("Expected resolver mode 'single', got '%s'", cfg.Resolver.Mode)
	}
	if cfg.Classifier.NumTrees != 100 {
		t.Errorf("Expected 100 trees, got %d", cfg.Classifier.NumTrees)
	}
	if len(cfg.Sinks) != 3 {
		t.Errorf("Expected 3 sink definitions, got %d", len(cfg.Sinks))
	}
}

func TestLoadConfig_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "classifier:\n  type: bayes\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Classifier.Type != "bayes" {
		t.Errorf("Expected classifier type 'bayes', got '%s'", cfg.Classifier.Type)
	}
	if cfg.Training.TestFraction != 0.2 || cfg.Training.Seed != 42 {
		t.Errorf("Expected default split 0.2/42, got %v/%d", cfg.Training.TestFraction, cfg.Training.Seed)
	}
	if cfg.Manager.NumWorkers != 4 {
		t.Errorf("Expected default 4 workers, got %d", cfg.Manager.NumWorkers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"resolver":  "resolver:\n  mode: bogus\n",
		"fraction":  "training:\n  test_fraction: 1.5\n",
		"store":     "model_store:\n  type: s3\n",
		"sink":      "sinks:\n  - type: kafka\n",
		"file sink": "sinks:\n  - type: file\n    enabled: true\n",
		"workers":   "manager:\n  num_workers: 0\n",
		"malformed": "resolver: [",
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected an error, got nil", name)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestApplyLogging(t *testing.T) {
	if err := ApplyLogging(LoggingConfig{Level: "debug", Format: "json"}); err != nil {
		t.Errorf("ApplyLogging failed: %v", err)
	}
	if err := ApplyLogging(LoggingConfig{Level: "loud"}); err == nil {
		t.Error("Expected an error for an unknown level")
	}
	if err := ApplyLogging(LoggingConfig{Format: "xml"}); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	_ = ApplyLogging(LoggingConfig{Level: "info", Format: "text"})
}

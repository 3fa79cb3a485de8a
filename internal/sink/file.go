package sink

import (
	"FlowSentinel/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SummaryData holds the metadata written beside each verdict file.
type SummaryData struct {
	Source     string `json:"source"`
	TotalFlows int    `json:"total_flows"`
	Malicious  int    `json:"malicious"`
	Timestamp  string `json:"timestamp"`
}

// FileWriter writes verdicts under rootPath/<timestamp>/<source>/.
type FileWriter struct {
	rootPath string
	now      func() time.Time
}

// NewFileWriter creates a writer rooted at rootPath.
func NewFileWriter(rootPath string) *FileWriter {
	return &FileWriter{rootPath: rootPath, now: time.Now}
}

// Write stores one JSON line per verdict in verdicts.jsonl plus a summary.json.
func (w *FileWriter) Write(ctx context.Context, source string, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	now := w.now()
	dir := filepath.Join(w.rootPath, now.Format("2006-01-02_15-04-05"), safeName(source))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create verdict directory: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, "verdicts.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to create verdict file: %w", err)
	}
	defer file.Close()

	summary := SummaryData{Source: source, TotalFlows: len(verdicts), Timestamp: now.UTC().Format(time.RFC3339)}
	encoder := json.NewEncoder(file)
	for _, v := range verdicts {
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode verdict: %w", err)
		}
		if v.Result.Label == model.LabelMalicious {
			summary.Malicious++
		}
	}

	summaryFile, err := os.Create(filepath.Join(dir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	return nil
}

func (w *FileWriter) Close() error {
	return nil
}

// safeName turns a capture path into a single directory name.
func safeName(source string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(source)
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "capture"
	}
	return name
}

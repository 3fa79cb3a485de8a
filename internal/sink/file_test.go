package sink

import (
	"FlowSentinel/internal/model"
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWriter_Write(t *testing.T) {
	tmpDir := t.TempDir()
	w := NewFileWriter(tmpDir)
	w.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	verdicts := []model.Verdict{
		{Key: model.FlowKey{Value: "a"}, Result: model.ClassificationResult{Label: 1, Confidence: 0.9}},
		{Key: model.FlowKey{Value: "b"}, Result: model.ClassificationResult{Label: 0, Confidence: 0.6}},
	}
	if err := w.Write(context.Background(), "/tmp/captures/edge.pcap", verdicts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	dir := filepath.Join(tmpDir, "2024-05-01_12-00-00", "tmp_captures_edge.pcap")
	f, err := os.Open(filepath.Join(dir, "verdicts.jsonl"))
	if err != nil {
		t.Fatalf("Failed to open verdict file: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v model.Verdict
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Fatalf("Failed to decode verdict line: %v", err)
		}
		if v.Key != verdicts[lines].Key {
			t.Errorf("line %d: expected key %v, got %v", lines, verdicts[lines].Key, v.Key)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 verdict lines, got %d", lines)
	}

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var summary SummaryData
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.TotalFlows != 2 || summary.Malicious != 1 || summary.Source != "/tmp/captures/edge.pcap" {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestFileWriter_NoVerdicts(t *testing.T) {
	tmpDir := t.TempDir()
	if err := NewFileWriter(tmpDir).Write(context.Background(), "a.pcap", nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("expected nothing written, found %d entries", len(entries))
	}
}

package dataset

import (
	"FlowSentinel/internal/model"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const header = "packet_count,byte_count,duration,avg_packet_size,flow_bytes_per_sec,flow_packets_per_sec,flow_duration,label\n"

func TestLoad(t *testing.T) {
	data := header +
		"3,600,2,200,300,1.5,2,0\n" +
		"10,15000,1,1500,15000,10,1,1\n"
	samples, err := Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Label != model.LabelBenign || samples[1].Label != model.LabelMalicious {
		t.Errorf("unexpected labels: %d, %d", samples[0].Label, samples[1].Label)
	}
	if samples[1].Features[1] != 15000 {
		t.Errorf("expected byte_count 15000, got %v", samples[1].Features[1])
	}
}

func TestLoadReorderedColumns(t *testing.T) {
	data := "label,flow_duration,flow_packets_per_sec,flow_bytes_per_sec,avg_packet_size,duration,byte_count,packet_count\n" +
		"1.0,2,1.5,300,200,2,600,3\n"
	samples, err := Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []float64{3, 600, 2, 200, 300, 1.5, 2}
	for i, v := range want {
		if samples[0].Features[i] != v {
			t.Errorf("feature %s: expected %v, got %v", model.FeatureNames[i], v, samples[0].Features[i])
		}
	}
	if samples[0].Label != model.LabelMalicious {
		t.Errorf("expected label 1, got %d", samples[0].Label)
	}
}

func TestLoadHeaderOnly(t *testing.T) {
	samples, err := Load(strings.NewReader(header))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected no samples, got %d", len(samples))
	}
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	if !errors.Is(err, model.ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestLoadSchemaMismatch(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		column string
	}{
		{"missing column", "packet_count,byte_count,duration,avg_packet_size,flow_bytes_per_sec,flow_packets_per_sec,label\n1,2,3,4,5,6,0\n", ""},
		{"unknown column", "packet_count,byte_count,duration,avg_packet_size,flow_bytes_per_sec,flow_packets_per_sec,ttl,label\n1,2,3,4,5,6,7,0\n", "flow_duration"},
		{"missing label", "packet_count,byte_count,duration,avg_packet_size,flow_bytes_per_sec,flow_packets_per_sec,flow_duration,class\n1,2,3,4,5,6,7,0\n", model.LabelColumn},
		{"short row", header + "1,2,3,4,5,6,0\n", ""},
		{"bad number", header + "1,2,x,4,5,6,7,0\n", "duration"},
		{"bad label", header + "1,2,3,4,5,6,7,2\n", model.LabelColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.data))
			var schemaErr *model.SchemaMismatchError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaMismatchError, got %v", err)
			}
			if tt.column != "" && schemaErr.Column != tt.column {
				t.Errorf("expected column %q, got %q", tt.column, schemaErr.Column)
			}
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	samples := []model.LabeledSample{
		{Features: []float64{3, 600, 2, 200, 300, 1.5, 2}, Label: 0},
		{Features: []float64{1, 60, 0, 60, 0, 0, 0}, Label: 1},
	}
	var buf bytes.Buffer
	if err := Write(&buf, samples); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), header) {
		t.Errorf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	path := filepath.Join(t.TempDir(), "flows.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(loaded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(loaded))
	}
	for i := range samples {
		if loaded[i].Label != samples[i].Label {
			t.Errorf("row %d: label mismatch", i)
		}
		for j := range samples[i].Features {
			if loaded[i].Features[j] != samples[i].Features[j] {
				t.Errorf("row %d col %d: expected %v, got %v", i, j, samples[i].Features[j], loaded[i].Features[j])
			}
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

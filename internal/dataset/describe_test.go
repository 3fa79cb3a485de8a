package dataset

import (
	"FlowSentinel/internal/model"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	samples := []model.LabeledSample{
		{Features: []float64{1, 100, 0, 100, 0, 0, 0}, Label: 0},
		{Features: []float64{3, 300, 2, 100, 150, 1.5, 2}, Label: 0},
		{Features: []float64{5, 500, 4, 100, 125, 1.25, 4}, Label: 1},
	}
	s, err := Describe(samples)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if s.Rows != 3 {
		t.Errorf("expected 3 rows, got %d", s.Rows)
	}
	if s.ClassCounts[0] != 2 || s.ClassCounts[1] != 1 {
		t.Errorf("unexpected class counts %v", s.ClassCounts)
	}
	pc := s.Columns[0]
	if pc.Name != "packet_count" || pc.Mean != 3 || pc.Median != 3 || pc.Min != 1 || pc.Max != 5 || pc.StdDev != 2 {
		t.Errorf("unexpected packet_count summary %+v", pc)
	}

	var buf bytes.Buffer
	s.Render(&buf)
	if !strings.Contains(buf.String(), "Malicious samples (1): 1") {
		t.Errorf("render missing class counts:\n%s", buf.String())
	}
}

func TestDescribeEmpty(t *testing.T) {
	if _, err := Describe(nil); !errors.Is(err, model.ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestDescribeSingleRow(t *testing.T) {
	s, err := Describe([]model.LabeledSample{{Features: []float64{1, 2, 3, 4, 5, 6, 7}, Label: 1}})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if s.Columns[6].StdDev != 0 {
		t.Errorf("expected zero stddev for one row, got %v", s.Columns[6].StdDev)
	}
}

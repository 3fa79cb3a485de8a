package sink

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"context"
	"errors"
	"testing"
	"time"
)

type countingWriter struct {
	writes int
	closed bool
	err    error
}

func (w *countingWriter) Write(ctx context.Context, source string, verdicts []model.Verdict) error {
	w.writes++
	return w.err
}

func (w *countingWriter) Close() error {
	w.closed = true
	return w.err
}

func TestMulti(t *testing.T) {
	ok := &countingWriter{}
	boom := errors.New("boom")
	failing := &countingWriter{err: boom}
	m := Multi{failing, ok}

	err := m.Write(context.Background(), "a.pcap", []model.Verdict{{}})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if ok.writes != 1 || failing.writes != 1 {
		t.Error("every writer must receive the verdicts")
	}
	if err := m.Close(); !errors.Is(err, boom) {
		t.Errorf("expected close error, got %v", err)
	}
	if !ok.closed {
		t.Error("expected all writers closed")
	}
}

func TestNew_NoneEnabled(t *testing.T) {
	m, err := New([]config.SinkDef{{Type: "clickhouse", Enabled: false}, {Type: "nats"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected no writers, got %d", len(m))
	}
	if err := m.Write(context.Background(), "a.pcap", nil); err != nil {
		t.Errorf("empty Multi must accept writes, got %v", err)
	}
}

func TestNew_UnknownType(t *testing.T) {
	if _, err := New([]config.SinkDef{{Type: "kafka", Enabled: true}}); err == nil {
		t.Error("expected error for unknown sink type")
	}
}

func TestVerdictRow(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	v := model.Verdict{
		Key:      model.FlowKey{Value: "capture"},
		Features: model.FlowFeatureVector{PacketCount: 3, ByteCount: 600, Duration: 2, AvgPacketSize: 200, BytesPerSecond: 300, PacketsPerSecond: 1.5, FlowDuration: 2},
		Result:   model.ClassificationResult{Label: 1, Confidence: 0.9},
	}
	row := verdictRow(ts, "a.pcap", v)
	if len(row) != 13 {
		t.Fatalf("expected 13 columns, got %d", len(row))
	}
	if row[3] != uint8(1) || row[4] != "Malicious" || row[6] != uint64(3) || row[7] != uint64(600) {
		t.Errorf("unexpected row %v", row)
	}
}

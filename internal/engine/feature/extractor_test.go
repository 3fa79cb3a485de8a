package feature

import (
	"FlowSentinel/internal/model"
	"math"
	"testing"
)

func checkVector(t *testing.T, got, want model.FlowFeatureVector) {
	t.Helper()
	g, w := got.Values(), want.Values()
	for i := range w {
		if math.Abs(g[i]-w[i]) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", model.FeatureNames[i], w[i], g[i])
		}
	}
}

func TestExtract_ThreePackets(t *testing.T) {
	packets := []model.PacketRecord{
		{Timestamp: 10.0, Length: 100, HasNetworkLayer: true},
		{Timestamp: 11.0, Length: 200, HasNetworkLayer: false},
		{Timestamp: 12.0, Length: 300, HasNetworkLayer: true},
	}
	v, ok := Extract(packets)
	if !ok {
		t.Fatal("Expected features for a non-empty group")
	}
	checkVector(t, v, model.FlowFeatureVector{
		PacketCount:      3,
		ByteCount:        600,
		Duration:         2.0,
		AvgPacketSize:    200.0,
		BytesPerSecond:   300.0,
		PacketsPerSecond: 1.5,
		FlowDuration:     2.0,
	})
}

func TestExtract_SinglePacket(t *testing.T) {
	v, ok := Extract([]model.PacketRecord{{Timestamp: 5.0, Length: 500, HasNetworkLayer: true}})
	if !ok {
		t.Fatal("Expected features for a single packet")
	}
	checkVector(t, v, model.FlowFeatureVector{
		PacketCount:   1,
		ByteCount:     500,
		AvgPacketSize: 500,
	})
}

func TestExtract_Empty(t *testing.T) {
	if _, ok := Extract(nil); ok {
		t.Error("Expected no features for an empty group")
	}
	if _, ok := Extract([]model.PacketRecord{}); ok {
		t.Error("Expected no features for an empty group")
	}
}

func TestExtract_NoNetworkLayer(t *testing.T) {
	v, ok := Extract([]model.PacketRecord{
		{Timestamp: 1, Length: 60},
		{Timestamp: 9, Length: 60},
	})
	if !ok {
		t.Fatal("Untimed packets still produce counts")
	}
	checkVector(t, v, model.FlowFeatureVector{PacketCount: 2, ByteCount: 120, AvgPacketSize: 60})
}

func TestExtract_OutOfOrderTimestamps(t *testing.T) {
	v, _ := Extract([]model.PacketRecord{
		{Timestamp: 20, Length: 10, HasNetworkLayer: true},
		{Timestamp: 5, Length: 10, HasNetworkLayer: true},
		{Timestamp: 15, Length: 10, HasNetworkLayer: true},
		{Timestamp: 1, Length: 10, HasNetworkLayer: false},
	})
	if v.Duration != 15 || v.FlowDuration != 15 {
		t.Errorf("Expected duration 15 from max-min of timed packets, got %v/%v", v.Duration, v.FlowDuration)
	}
	if v.PacketsPerSecond != 4.0/15 {
		t.Errorf("Expected %v packets/s, got %v", 4.0/15, v.PacketsPerSecond)
	}
}

func TestExtract_Properties(t *testing.T) {
	groups := [][]model.PacketRecord{
		{{Timestamp: 1, Length: 1}},
		{{Timestamp: 3, Length: 7, HasNetworkLayer: true}, {Timestamp: 3, Length: 9, HasNetworkLayer: true}},
		{{Timestamp: 0.25, Length: 1500, HasNetworkLayer: true}, {Timestamp: 0.75, Length: 40, HasNetworkLayer: true}, {Timestamp: 0.5, Length: 1}},
	}
	for i, g := range groups {
		first, _ := Extract(g)
		second, _ := Extract(g)
		if first != second {
			t.Errorf("group %d: extraction is not idempotent", i)
		}
		if first.AvgPacketSize != first.ByteCount/first.PacketCount {
			t.Errorf("group %d: avg_packet_size %v != byte_count/packet_count", i, first.AvgPacketSize)
		}
		if first.Duration != first.FlowDuration {
			t.Errorf("group %d: duration and flow_duration differ", i)
		}
		for j, x := range first.Values() {
			if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
				t.Errorf("group %d: %s is not a non-negative finite number: %v", i, model.FeatureNames[j], x)
			}
		}
		if _, err := model.VectorFromValues(first.Values()); err != nil {
			t.Errorf("group %d: extracted vector does not satisfy the schema: %v", i, err)
		}
	}
}

func TestExtractGroups(t *testing.T) {
	groups := []model.FlowGroup{
		{Key: model.FlowKey{Value: "a"}, Packets: []model.PacketRecord{{Length: 10}}},
		{Key: model.FlowKey{Value: "empty"}},
		{Key: model.FlowKey{Value: "b"}, Packets: []model.PacketRecord{{Length: 20}, {Length: 30}}},
	}
	out := ExtractGroups(groups)
	if len(out) != 2 {
		t.Fatalf("Expected 2 feature sets, got %d", len(out))
	}
	if out[0].Key.Value != "a" || out[1].Key.Value != "b" {
		t.Errorf("Unexpected key order: %v, %v", out[0].Key, out[1].Key)
	}
	if out[1].Features.ByteCount != 50 {
		t.Errorf("Expected 50 bytes, got %v", out[1].Features.ByteCount)
	}
}

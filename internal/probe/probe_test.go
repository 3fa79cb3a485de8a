package probe

import (
	"FlowSentinel/internal/model"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func sampleVerdict() model.Verdict {
	return model.Verdict{
		Key: model.FlowKey{Value: "capture"},
		Features: model.FlowFeatureVector{
			PacketCount: 3, ByteCount: 600, Duration: 2, AvgPacketSize: 200,
			BytesPerSecond: 300, PacketsPerSecond: 1.5, FlowDuration: 2,
		},
		Result: model.ClassificationResult{Label: model.LabelMalicious, Confidence: 0.87, Probabilities: []float64{0.13, 0.87}},
	}
}

func TestEncodeDecode(t *testing.T) {
	in := Message{Source: "edge-1.pcap", ObservedAt: time.Unix(1700000000, 123456789).UTC(), Verdict: sampleVerdict()}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !out.ObservedAt.Equal(in.ObservedAt) {
		t.Errorf("observed_at: expected %v, got %v", in.ObservedAt, out.ObservedAt)
	}
	out.ObservedAt = in.ObservedAt
	if !reflect.DeepEqual(in, out) {
		t.Errorf("message changed on the wire:\n in: %+v\nout: %+v", in, out)
	}
}

func TestDecodeMissingFeature(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"key":      "capture",
		"features": map[string]interface{}{"packet_count": 1.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := encodeEvent(timestamppb.Now(), s)
	if err != nil {
		t.Fatal(err)
	}
	var schemaErr *model.SchemaMismatchError
	if _, err := Decode(data); !errors.As(err, &schemaErr) {
		t.Errorf("expected SchemaMismatchError, got %v", err)
	}
}

func TestEventLayout(t *testing.T) {
	observed := time.Unix(1700000000, 5).UTC()
	data, err := Encode(Message{Source: "a.pcap", ObservedAt: observed, Verdict: sampleVerdict()})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 || num != 1 || typ != protowire.BytesType {
		t.Fatalf("expected observed_at as field 1, got field %d type %d", num, typ)
	}
	value, _ := protowire.ConsumeBytes(data[n:])
	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(value, &ts); err != nil {
		t.Fatalf("field 1 is not a Timestamp: %v", err)
	}
	if !ts.AsTime().Equal(observed) {
		t.Errorf("expected %v, got %v", observed, ts.AsTime())
	}
}

func TestDecodeMissingTimestamp(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{"key": "capture"})
	if err != nil {
		t.Fatal(err)
	}
	body, err := proto.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	data := protowire.AppendTag(nil, 2, protowire.BytesType)
	data = protowire.AppendBytes(data, body)
	if _, err := Decode(data); err == nil {
		t.Error("expected error for a frame without observed_at")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for garbage input")
	}
}

type fakeConn struct {
	published [][]byte
	flushed   int
	drained   bool
	failAfter int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.failAfter > 0 && len(c.published) >= c.failAfter {
		return errors.New("connection closed")
	}
	c.published = append(c.published, data)
	return nil
}

func (c *fakeConn) Flush() error {
	c.flushed++
	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	return c.Flush()
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func TestPublisherWrite(t *testing.T) {
	nc := &fakeConn{}
	observed := time.Unix(1700000000, 0).UTC()
	p := &Publisher{nc: nc, subject: "flowsentinel.verdicts", now: func() time.Time { return observed }}

	verdicts := []model.Verdict{sampleVerdict(), sampleVerdict()}
	verdicts[1].Key = model.FlowKey{Value: "10.0.0.1-10.0.0.2"}
	if err := p.Write(context.Background(), "a.pcap", verdicts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(nc.published) != 2 || nc.flushed != 1 {
		t.Fatalf("expected 2 messages and 1 flush, got %d and %d", len(nc.published), nc.flushed)
	}
	m, err := Decode(nc.published[1])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Source != "a.pcap" || m.Verdict.Key != verdicts[1].Key || !m.ObservedAt.Equal(observed) {
		t.Errorf("unexpected message %+v", m)
	}

	if err := p.Close(); err != nil || !nc.drained {
		t.Errorf("expected drained connection, err = %v", err)
	}
}

func TestPublisherWriteError(t *testing.T) {
	nc := &fakeConn{failAfter: 1}
	p := &Publisher{nc: nc, subject: "s", now: time.Now}
	if err := p.Write(context.Background(), "a.pcap", []model.Verdict{sampleVerdict(), sampleVerdict()}); err == nil {
		t.Error("expected publish error")
	}
}

package probe

import (
	"FlowSentinel/internal/model"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Bus frames are a two-field protobuf message:
//
//	message VerdictEvent {
//	  google.protobuf.Timestamp observed_at = 1;
//	  google.protobuf.Struct verdict = 2;
//	}
const (
	fieldObservedAt protowire.Number = 1
	fieldVerdict    protowire.Number = 2
)

// Message is one verdict as carried on the bus.
type Message struct {
	Source     string
	ObservedAt time.Time
	Verdict    model.Verdict
}

// Encode serializes a message as a VerdictEvent frame.
func Encode(m Message) ([]byte, error) {
	features := make(map[string]interface{}, model.NumFeatures)
	for i, v := range m.Verdict.Features.Values() {
		features[model.FeatureNames[i]] = v
	}
	probabilities := make([]interface{}, len(m.Verdict.Result.Probabilities))
	for i, p := range m.Verdict.Result.Probabilities {
		probabilities[i] = p
	}

	s, err := structpb.NewStruct(map[string]interface{}{
		"source":        m.Source,
		"key":           m.Verdict.Key.Value,
		"label":         m.Verdict.Result.Label,
		"label_name":    model.LabelName(m.Verdict.Result.Label),
		"confidence":    m.Verdict.Result.Confidence,
		"probabilities": probabilities,
		"features":      features,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build verdict struct: %w", err)
	}
	return encodeEvent(timestamppb.New(m.ObservedAt), s)
}

func encodeEvent(ts *timestamppb.Timestamp, verdict *structpb.Struct) ([]byte, error) {
	tsBytes, err := proto.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal observed_at: %w", err)
	}
	verdictBytes, err := proto.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verdict: %w", err)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldObservedAt, protowire.BytesType)
	b = protowire.AppendBytes(b, tsBytes)
	b = protowire.AppendTag(b, fieldVerdict, protowire.BytesType)
	b = protowire.AppendBytes(b, verdictBytes)
	return b, nil
}

// decodeEvent splits a frame into its timestamp and verdict struct. Unknown
// fields are skipped.
func decodeEvent(data []byte) (*timestamppb.Timestamp, *structpb.Struct, error) {
	var ts *timestamppb.Timestamp
	var verdict *structpb.Struct
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		data = data[n:]

		if typ != protowire.BytesType || (num != fieldObservedAt && num != fieldVerdict) {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, nil, protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}

		value, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		data = data[n:]

		switch num {
		case fieldObservedAt:
			ts = &timestamppb.Timestamp{}
			if err := proto.Unmarshal(value, ts); err != nil {
				return nil, nil, fmt.Errorf("observed_at: %w", err)
			}
		case fieldVerdict:
			verdict = &structpb.Struct{}
			if err := proto.Unmarshal(value, verdict); err != nil {
				return nil, nil, fmt.Errorf("verdict: %w", err)
			}
		}
	}
	if ts == nil {
		return nil, nil, errors.New("missing observed_at")
	}
	if verdict == nil {
		return nil, nil, errors.New("missing verdict")
	}
	return ts, verdict, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Message, error) {
	ts, s, err := decodeEvent(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal verdict event: %w", err)
	}
	if err := ts.CheckValid(); err != nil {
		return Message{}, fmt.Errorf("invalid observed_at: %w", err)
	}
	f := s.GetFields()

	var m Message
	m.Source = f["source"].GetStringValue()
	m.Verdict.Key = model.FlowKey{Value: f["key"].GetStringValue()}
	m.Verdict.Result.Label = int(f["label"].GetNumberValue())
	m.Verdict.Result.Confidence = f["confidence"].GetNumberValue()
	for _, p := range f["probabilities"].GetListValue().GetValues() {
		m.Verdict.Result.Probabilities = append(m.Verdict.Result.Probabilities, p.GetNumberValue())
	}

	featureFields := f["features"].GetStructValue().GetFields()
	values := make([]float64, model.NumFeatures)
	for i, name := range model.FeatureNames {
		v, ok := featureFields[name]
		if !ok {
			return Message{}, &model.SchemaMismatchError{Row: -1, Column: name, Got: len(featureFields), Want: model.NumFeatures, Reason: "missing feature"}
		}
		values[i] = v.GetNumberValue()
	}
	fv, err := model.VectorFromValues(values)
	if err != nil {
		return Message{}, err
	}
	m.Verdict.Features = fv
	m.ObservedAt = ts.AsTime()
	return m, nil
}

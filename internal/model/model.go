package model

import (
	"fmt"
	"math"
	"net"
)

// FiveTuple represents the 5-tuple of a network packet.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// PacketRecord holds the metadata extracted from a single captured frame.
// Records are produced in capture order and never mutated afterwards.
type PacketRecord struct {
	// Timestamp is the arrival time in fractional seconds since the Unix epoch.
	Timestamp float64
	// Length is the on-wire length of the frame in bytes.
	Length uint
	// HasNetworkLayer reports whether an IPv4 header could be decoded.
	HasNetworkLayer bool
	// FiveTuple is nil when no network layer was decoded.
	FiveTuple *FiveTuple
}

// FlowKey identifies the flow a packet belongs to.
type FlowKey struct {
	Value string
}

func (k FlowKey) String() string {
	return k.Value
}

// FlowGroup is an ordered set of packets sharing one FlowKey.
type FlowGroup struct {
	Key     FlowKey
	Packets []PacketRecord
}

// NumFeatures is the width of every feature vector.
const NumFeatures = 7

// FeatureNames lists the feature columns in their fixed order.
var FeatureNames = [NumFeatures]string{
	"packet_count",
	"byte_count",
	"duration",
	"avg_packet_size",
	"bytes_per_second",
	"packets_per_second",
	"flow_duration",
}

// LabelColumn is the name of the target column in training datasets.
const LabelColumn = "label"

// FlowFeatureVector is the fixed numeric summary of one flow.
type FlowFeatureVector struct {
	PacketCount      float64 `json:"packet_count"`
	ByteCount        float64 `json:"byte_count"`
	Duration         float64 `json:"duration"`
	AvgPacketSize    float64 `json:"avg_packet_size"`
	BytesPerSecond   float64 `json:"bytes_per_second"`
	PacketsPerSecond float64 `json:"packets_per_second"`
	FlowDuration     float64 `json:"flow_duration"`
}

// Values returns the vector in FeatureNames order.
func (v FlowFeatureVector) Values() []float64 {
	return []float64{
		v.PacketCount,
		v.ByteCount,
		v.Duration,
		v.AvgPacketSize,
		v.BytesPerSecond,
		v.PacketsPerSecond,
		v.FlowDuration,
	}
}

// VectorFromValues builds a FlowFeatureVector from values in FeatureNames order.
func VectorFromValues(values []float64) (FlowFeatureVector, error) {
	if len(values) != NumFeatures {
		return FlowFeatureVector{}, &SchemaMismatchError{Row: -1, Got: len(values), Want: NumFeatures}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return FlowFeatureVector{}, &SchemaMismatchError{Row: -1, Column: FeatureNames[i], Got: NumFeatures, Want: NumFeatures, Reason: "value must be a non-negative finite number"}
		}
	}
	return FlowFeatureVector{
		PacketCount:      values[0],
		ByteCount:        values[1],
		Duration:         values[2],
		AvgPacketSize:    values[3],
		BytesPerSecond:   values[4],
		PacketsPerSecond: values[5],
		FlowDuration:     values[6],
	}, nil
}

// Class labels.
const (
	LabelBenign    = 0
	LabelMalicious = 1
	NumClasses     = 2
)

// LabelName returns the operator-facing name of a class label.
func LabelName(label int) string {
	switch label {
	case LabelBenign:
		return "Benign"
	case LabelMalicious:
		return "Malicious"
	default:
		return fmt.Sprintf("Unknown(%d)", label)
	}
}

// LabeledSample is one training row.
type LabeledSample struct {
	Features []float64
	Label    int
}

// ClassificationResult is a predicted label together with its confidence,
// the maximum class probability.
type ClassificationResult struct {
	Label         int       `json:"label"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

// FlowFeatures pairs a flow key with its extracted features.
type FlowFeatures struct {
	Key      FlowKey           `json:"key"`
	Features FlowFeatureVector `json:"features"`
}

// Verdict is the classification of a single flow.
type Verdict struct {
	Key      FlowKey              `json:"key"`
	Features FlowFeatureVector    `json:"features"`
	Result   ClassificationResult `json:"result"`
}

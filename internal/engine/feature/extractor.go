// Package feature turns a group of packet records into a FlowFeatureVector.
package feature

import (
	"FlowSentinel/internal/model"
)

// Extract aggregates a flow group into its feature vector. It reports false
// when the group is empty, in which case no features exist.
//
// Only records with a network layer contribute to the duration; every record
// contributes to the packet and byte counts. Groups with fewer than two timed
// records have zero duration and therefore zero rates.
func Extract(packets []model.PacketRecord) (model.FlowFeatureVector, bool) {
	packetCount := len(packets)
	if packetCount == 0 {
		return model.FlowFeatureVector{}, false
	}

	var byteCount uint64
	var timed int
	var first, last float64
	for _, p := range packets {
		byteCount += uint64(p.Length)
		if !p.HasNetworkLayer {
			continue
		}
		if timed == 0 || p.Timestamp < first {
			first = p.Timestamp
		}
		if timed == 0 || p.Timestamp > last {
			last = p.Timestamp
		}
		timed++
	}

	duration := 0.0
	if timed > 1 {
		duration = last - first
	}

	v := model.FlowFeatureVector{
		PacketCount:   float64(packetCount),
		ByteCount:     float64(byteCount),
		Duration:      duration,
		AvgPacketSize: float64(byteCount) / float64(packetCount),
		FlowDuration:  duration,
	}
	if duration > 0 {
		v.BytesPerSecond = float64(byteCount) / duration
		v.PacketsPerSecond = float64(packetCount) / duration
	}
	return v, true
}

// ExtractGroups extracts every non-empty group, keeping group order.
func ExtractGroups(groups []model.FlowGroup) []model.FlowFeatures {
	out := make([]model.FlowFeatures, 0, len(groups))
	for _, g := range groups {
		v, ok := Extract(g.Packets)
		if !ok {
			continue
		}
		out = append(out, model.FlowFeatures{Key: g.Key, Features: v})
	}
	return out
}

package flowkey

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"fmt"
	"strconv"
	"strings"
)

var (
	// WholeCapture is the single key used when a capture is treated as one flow.
	WholeCapture = model.FlowKey{Value: "capture"}
	// NonIP collects the records that carry no network layer in five-tuple mode.
	NonIP = model.FlowKey{Value: "non-ip"}
)

// validFields lists the key fields a five-tuple resolver accepts.
var validFields = map[string]struct{}{
	"SrcIP":    {},
	"DstIP":    {},
	"SrcPort":  {},
	"DstPort":  {},
	"Protocol": {},
}

// Resolver groups packet records into flows. Every record lands in exactly one
// group, groups appear in order of their first record, and records keep capture order.
type Resolver interface {
	Group(records []model.PacketRecord) []model.FlowGroup
}

// New creates the resolver selected by the configuration.
func New(cfg config.ResolverConfig) (Resolver, error) {
	switch cfg.Mode {
	case "", "single":
		return SingleFlow{}, nil
	case "five_tuple":
		return NewFiveTuple(cfg.KeyFields)
	default:
		return nil, fmt.Errorf("unknown resolver mode: '%s'", cfg.Mode)
	}
}

// SingleFlow maps every record of a capture to WholeCapture.
type SingleFlow struct{}

// Group returns one group holding all records, or none for an empty input.
func (SingleFlow) Group(records []model.PacketRecord) []model.FlowGroup {
	if len(records) == 0 {
		return nil
	}
	packets := make([]model.PacketRecord, len(records))
	copy(packets, records)
	return []model.FlowGroup{{Key: WholeCapture, Packets: packets}}
}

// FiveTuple demultiplexes records by a configurable subset of the 5-tuple.
type FiveTuple struct {
	keyFields []string
}

// NewFiveTuple creates a five-tuple resolver keyed on the given fields.
func NewFiveTuple(keyFields []string) (*FiveTuple, error) {
	if len(keyFields) == 0 {
		return nil, fmt.Errorf("five_tuple resolver needs at least one key field")
	}
	for _, field := range keyFields {
		if _, ok := validFields[field]; !ok {
			return nil, fmt.Errorf("unknown key field: %s", field)
		}
	}
	fields := make([]string, len(keyFields))
	copy(fields, keyFields)
	return &FiveTuple{keyFields: fields}, nil
}

// Group buckets records by their key.
func (r *FiveTuple) Group(records []model.PacketRecord) []model.FlowGroup {
	var groups []model.FlowGroup
	index := make(map[string]int)

	for _, record := range records {
		key := NonIP
		if record.FiveTuple != nil {
			key = model.FlowKey{Value: r.generateKey(*record.FiveTuple)}
		}

		i, ok := index[key.Value]
		if !ok {
			i = len(groups)
			index[key.Value] = i
			groups = append(groups, model.FlowGroup{Key: key})
		}
		groups[i].Packets = append(groups[i].Packets, record)
	}
	return groups
}

// generateKey creates the string key for a tuple from the configured fields.
func (r *FiveTuple) generateKey(ft model.FiveTuple) string {
	parts := make([]string, len(r.keyFields))
	for i, field := range r.keyFields {
		switch field {
		case "SrcIP":
			parts[i] = ft.SrcIP.String()
		case "DstIP":
			parts[i] = ft.DstIP.String()
		case "SrcPort":
			parts[i] = strconv.Itoa(int(ft.SrcPort))
		case "DstPort":
			parts[i] = strconv.Itoa(int(ft.DstPort))
		case "Protocol":
			parts[i] = strconv.Itoa(int(ft.Protocol))
		}
	}
	return strings.Join(parts, "-")
}

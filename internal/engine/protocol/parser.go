package protocol

import (
	"FlowSentinel/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ParsePacket uses gopacket to decode a raw frame and extract the fields the
// feature extractor needs. Frames that do not carry an IPv4 header are still
// returned, with HasNetworkLayer false, so they count towards packet and byte totals.
func ParsePacket(data []byte, linkType layers.LinkType, ci gopacket.CaptureInfo) model.PacketRecord {
	record := model.PacketRecord{
		Timestamp: Seconds(ci),
		Length:    uint(ci.Length),
	}
	if ci.Length <= 0 {
		// Some writers leave the on-wire length unset.
		record.Length = uint(len(data))
	}

	packet := gopacket.NewPacket(data, linkType, gopacket.Lazy)

	l := packet.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return record
	}
	ipLayer := l.(*layers.IPv4)
	record.HasNetworkLayer = true

	fiveTuple := &model.FiveTuple{
		SrcIP:    ipLayer.SrcIP,
		DstIP:    ipLayer.DstIP,
		Protocol: uint8(ipLayer.Protocol),
	}

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		tcpLayer := l.(*layers.TCP)
		fiveTuple.SrcPort = uint16(tcpLayer.SrcPort)
		fiveTuple.DstPort = uint16(tcpLayer.DstPort)
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		udpLayer := l.(*layers.UDP)
		fiveTuple.SrcPort = uint16(udpLayer.SrcPort)
		fiveTuple.DstPort = uint16(udpLayer.DstPort)
	}

	record.FiveTuple = fiveTuple
	return record
}

// Seconds converts a capture timestamp to fractional seconds since the epoch.
func Seconds(ci gopacket.CaptureInfo) float64 {
	ts := ci.Timestamp
	return float64(ts.Unix()) + float64(ts.Nanosecond())/1e9
}

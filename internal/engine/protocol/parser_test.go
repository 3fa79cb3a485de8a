package protocol

import (
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func TestParsePacket_TCP(t *testing.T) {
	frame := buildFrame(t, true, false, 10)
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(10, 500000000),
		CaptureLength: len(frame),
		Length:        len(frame) + 4,
	}

	info := ParsePacket(frame, layers.LinkTypeEthernet, ci)

	if !info.HasNetworkLayer {
		t.Fatal("Expected an IPv4 network layer")
	}
	if info.Timestamp != 10.5 {
		t.Errorf("Expected timestamp 10.5, got %v", info.Timestamp)
	}
	if info.Length != uint(len(frame)+4) {
		t.Errorf("Expected on-wire length %d, got %d", len(frame)+4, info.Length)
	}
	if info.FiveTuple == nil {
		t.Fatal("Expected a five tuple")
	}
	if info.FiveTuple.SrcIP.String() != "192.168.0.1" || info.FiveTuple.DstIP.String() != "8.8.8.8" {
		t.Errorf("Unexpected addresses: %s -> %s", info.FiveTuple.SrcIP, info.FiveTuple.DstIP)
	}
	if info.FiveTuple.SrcPort != 40000 || info.FiveTuple.DstPort != 443 {
		t.Errorf("Unexpected ports: %d -> %d", info.FiveTuple.SrcPort, info.FiveTuple.DstPort)
	}
	if info.FiveTuple.Protocol != 6 {
		t.Errorf("Expected protocol 6, got %d", info.FiveTuple.Protocol)
	}
}

func TestParsePacket_UDP(t *testing.T) {
	frame := buildFrame(t, true, true, 0)
	info := ParsePacket(frame, layers.LinkTypeEthernet, gopacket.CaptureInfo{Length: len(frame)})
	if info.FiveTuple == nil || info.FiveTuple.DstPort != 53 || info.FiveTuple.Protocol != 17 {
		t.Errorf("Unexpected UDP tuple: %+v", info.FiveTuple)
	}
}

func TestParsePacket_NoNetworkLayer(t *testing.T) {
	frame := buildFrame(t, false, false, 0)
	info := ParsePacket(frame, layers.LinkTypeEthernet, gopacket.CaptureInfo{})

	if info.HasNetworkLayer {
		t.Error("ARP frame should not report a network layer")
	}
	if info.FiveTuple != nil {
		t.Error("ARP frame should not carry a five tuple")
	}
	if info.Length != uint(len(frame)) {
		t.Errorf("Expected length to fall back to %d, got %d", len(frame), info.Length)
	}
}

func TestParsePacket_Garbage(t *testing.T) {
	info := ParsePacket([]byte{0x01, 0x02, 0x03}, layers.LinkTypeEthernet, gopacket.CaptureInfo{Length: 3})
	if info.HasNetworkLayer {
		t.Error("Truncated frame should not report a network layer")
	}
	if info.Length != 3 {
		t.Errorf("Expected length 3, got %d", info.Length)
	}
}

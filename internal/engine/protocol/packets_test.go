package protocol

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// buildFrame serializes an Ethernet frame. When ip is false the frame carries ARP instead of IPv4.
func buildFrame(t *testing.T, ip bool, udp bool, payload int) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC: net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}

	if !ip {
		eth.EthernetType = layers.EthernetTypeARP
		arp := &layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   []byte(eth.SrcMAC),
			SourceProtAddress: []byte{10, 0, 0, 1},
			DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
			DstProtAddress:    []byte{10, 0, 0, 2},
		}
		if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
			t.Fatalf("Failed to serialize ARP frame: %v", err)
		}
		return buf.Bytes()
	}

	eth.EthernetType = layers.EthernetTypeIPv4
	ip4 := &layers.IPv4{
		Version: 4,
		TTL:     64,
		SrcIP:   net.IP{192, 168, 0, 1},
		DstIP:   net.IP{8, 8, 8, 8},
	}
	data := gopacket.Payload(make([]byte, payload))
	if udp {
		ip4.Protocol = layers.IPProtocolUDP
		u := &layers.UDP{SrcPort: 12345, DstPort: 53}
		u.SetNetworkLayerForChecksum(ip4)
		if err := gopacket.SerializeLayers(buf, opts, eth, ip4, u, data); err != nil {
			t.Fatalf("Failed to serialize UDP frame: %v", err)
		}
		return buf.Bytes()
	}
	ip4.Protocol = layers.IPProtocolTCP
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 443, SYN: true, Window: 14600}
	tcp.SetNetworkLayerForChecksum(ip4)
	if err := gopacket.SerializeLayers(buf, opts, eth, ip4, tcp, data); err != nil {
		t.Fatalf("Failed to serialize TCP frame: %v", err)
	}
	return buf.Bytes()
}

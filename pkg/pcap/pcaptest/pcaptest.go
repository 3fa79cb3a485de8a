// Package pcaptest synthesizes Ethernet captures for tests and generators.
package pcaptest

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Frame describes one synthesized packet. Zero addresses and ports get
// fixed defaults. Protocol defaults to TCP.
type Frame struct {
	Timestamp   time.Time
	NonIP       bool
	Protocol    layers.IPProtocol
	SrcIP       net.IP
	DstIP       net.IP
	SrcPort     uint16
	DstPort     uint16
	PayloadSize int
	// Length is the on-wire length recorded in the capture. Zero, or a value
	// below the serialized size, records the serialized size.
	Length int
}

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

// Serialize encodes a frame with checksums and lengths filled in.
func Serialize(f Frame) ([]byte, error) {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	payload := gopacket.Payload(make([]byte, f.PayloadSize))

	if f.NonIP {
		// Local experimental EtherType; nothing above the link layer decodes.
		eth.EthernetType = layers.EthernetType(0x88b5)
		if len(payload) < 46 {
			payload = make([]byte, 46)
		}
		if err := gopacket.SerializeLayers(buf, opts, eth, payload); err != nil {
			return nil, fmt.Errorf("failed to serialize frame: %w", err)
		}
		return buf.Bytes(), nil
	}

	src, dst := f.SrcIP, f.DstIP
	if src == nil {
		src = net.IP{10, 0, 0, 1}
	}
	if dst == nil {
		dst = net.IP{10, 0, 0, 2}
	}
	srcPort, dstPort := f.SrcPort, f.DstPort
	if srcPort == 0 {
		srcPort = 40000
	}
	if dstPort == 0 {
		dstPort = 443
	}
	proto := f.Protocol
	if proto == 0 {
		proto = layers.IPProtocolTCP
	}

	ip4 := &layers.IPv4{Version: 4, TTL: 64, Protocol: proto, SrcIP: src.To4(), DstIP: dst.To4()}
	var transport gopacket.SerializableLayer
	switch proto {
	case layers.IPProtocolUDP:
		udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
		udp.SetNetworkLayerForChecksum(ip4)
		transport = udp
	default:
		tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), ACK: true, Window: 14600}
		tcp.SetNetworkLayerForChecksum(ip4)
		transport = tcp
	}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip4, transport, payload); err != nil {
		return nil, fmt.Errorf("failed to serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Writer appends frames to a classic pcap stream.
type Writer struct {
	w *pcapgo.Writer
}

// NewWriter writes the pcap file header for Ethernet frames.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Writer{w: pw}, nil
}

// WriteFrame serializes and appends one frame.
func (w *Writer) WriteFrame(f Frame) error {
	data, err := Serialize(f)
	if err != nil {
		return err
	}
	length := f.Length
	if length < len(data) {
		length = len(data)
	}
	ci := gopacket.CaptureInfo{Timestamp: f.Timestamp, CaptureLength: len(data), Length: length}
	if err := w.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}

// Build returns a complete capture holding frames in the given order.
func Build(frames []Frame) ([]byte, error) {
	var out bytes.Buffer
	w, err := NewWriter(&out)
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

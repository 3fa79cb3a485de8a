package pcap

import (
	"FlowSentinel/internal/engine/protocol"
	"FlowSentinel/internal/model"
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ngSectionHeaderMagic is the block type of a pcapng section header. It reads
// the same in both byte orders.
var ngSectionHeaderMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

const ngByteOrderMagic = 0x1a2b3c4d

// ngReaderOptions keeps frames from every interface. Each frame carries the
// link type of its own interface in AncillaryData[0].
var ngReaderOptions = pcapgo.NgReaderOptions{WantMixedLinkType: true}

// Reader decodes a pcap or pcapng stream into packet records.
type Reader struct {
	source   gopacket.PacketDataSource
	ng       *pcapgo.NgReader
	linkType layers.LinkType
}

// NewReader detects the capture container (pcapng first, then classic pcap)
// and prepares to read frames from r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &model.CaptureFormatError{Op: "read header", Err: io.ErrUnexpectedEOF}
		}
		return nil, &model.CaptureFormatError{Op: "read header", Err: err}
	}

	if bytes.Equal(magic, ngSectionHeaderMagic) {
		return newNgReader(br)
	}

	reader, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, &model.CaptureFormatError{Op: "pcap header", Err: err}
	}
	return &Reader{source: reader, linkType: reader.LinkType()}, nil
}

// newNgReader loads the whole section stream and checks its block framing
// before decoding. The pcapng decoder reports a cut inside a block as a plain
// io.EOF, so truncation is caught here instead.
func newNgReader(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.CaptureFormatError{Op: "read pcapng", Err: err}
	}
	if err := checkNgFraming(data); err != nil {
		return nil, &model.CaptureFormatError{Op: "pcapng framing", Err: err}
	}
	ngReader, err := pcapgo.NewNgReader(bytes.NewReader(data), ngReaderOptions)
	if err != nil {
		return nil, &model.CaptureFormatError{Op: "pcapng header", Err: err}
	}
	return &Reader{source: ngReader, ng: ngReader}, nil
}

// checkNgFraming walks the pcapng blocks and requires every block to be
// complete, with matching leading and trailing lengths.
func checkNgFraming(data []byte) error {
	var order binary.ByteOrder = binary.LittleEndian
	for off := 0; off < len(data); {
		if len(data)-off < 12 {
			return fmt.Errorf("block at offset %d: %w", off, io.ErrUnexpectedEOF)
		}
		if bytes.Equal(data[off:off+4], ngSectionHeaderMagic) {
			switch {
			case binary.LittleEndian.Uint32(data[off+8:]) == ngByteOrderMagic:
				order = binary.LittleEndian
			case binary.BigEndian.Uint32(data[off+8:]) == ngByteOrderMagic:
				order = binary.BigEndian
			default:
				return fmt.Errorf("section at offset %d: invalid byte order magic", off)
			}
		}
		n := uint64(order.Uint32(data[off+4:]))
		if n < 12 {
			return fmt.Errorf("block at offset %d: invalid length %d", off, n)
		}
		if uint64(len(data)-off) < n {
			return fmt.Errorf("block at offset %d: %w", off, io.ErrUnexpectedEOF)
		}
		end := off + int(n)
		if uint64(order.Uint32(data[end-4:])) != n {
			return fmt.Errorf("block at offset %d: trailing length mismatch", off)
		}
		off = end
	}
	return nil
}

// LinkType returns the link layer type of the capture. For pcapng it is the
// type of the first interface seen so far.
func (r *Reader) LinkType() layers.LinkType {
	if r.ng != nil && r.ng.NInterfaces() > 0 {
		intf, err := r.ng.Interface(0)
		if err == nil {
			return intf.LinkType
		}
	}
	return r.linkType
}

// frameLinkType picks the per-interface link type pcapng attaches to a frame.
func (r *Reader) frameLinkType(ci gopacket.CaptureInfo) layers.LinkType {
	if len(ci.AncillaryData) > 0 {
		if lt, ok := ci.AncillaryData[0].(layers.LinkType); ok {
			return lt
		}
	}
	return r.linkType
}

// ReadAll reads every frame in capture order. A truncated or corrupt frame
// fails the whole read; an empty capture yields an empty slice.
func (r *Reader) ReadAll() ([]model.PacketRecord, error) {
	records := make([]model.PacketRecord, 0, 64)
	for {
		data, ci, err := r.source.ReadPacketData()
		if errors.Is(err, io.EOF) && ci.CaptureLength == 0 {
			// No record header was consumed: the capture ended cleanly.
			return records, nil
		}
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, &model.CaptureFormatError{
				Op:  fmt.Sprintf("frame %d", len(records)+1),
				Err: err,
			}
		}
		records = append(records, protocol.ParsePacket(data, r.frameLinkType(ci), ci))
	}
}

// Read parses a complete capture stream.
func Read(r io.Reader) ([]model.PacketRecord, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	return reader.ReadAll()
}

// ReadFile opens, parses and closes a capture file.
func ReadFile(filePath string) ([]model.PacketRecord, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

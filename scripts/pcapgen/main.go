package main

import (
	"FlowSentinel/pkg/pcap/pcaptest"
	"flag"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"
)

// trafficProfile shapes one synthetic flow.
type trafficProfile struct {
	minPayload, maxPayload int
	// gap is the mean spacing between packets.
	gap time.Duration
}

var profiles = map[string]trafficProfile{
	// Browsing-like: moderate packets spread over time.
	"benign": {minPayload: 200, maxPayload: 1200, gap: 500 * time.Millisecond},
	// Flood-like: near-MTU packets in a tight burst.
	"malicious": {minPayload: 1300, maxPayload: 1450, gap: 2 * time.Millisecond},
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	profileName := flag.String("profile", "benign", "Traffic profile: 'benign' or 'malicious'")
	flows := flag.Int("flows", 1, "Number of distinct 5-tuples to spread packets over")
	nonIP := flag.Float64("non-ip", 0, "Fraction of frames without a network layer")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	profile, ok := profiles[*profileName]
	if !ok {
		log.Fatalf("Unknown profile: %s", *profileName)
	}
	if *flows < 1 {
		*flows = 1
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	w, err := pcaptest.NewWriter(f)
	if err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	endpoints := make([]pcaptest.Frame, *flows)
	for i := range endpoints {
		endpoints[i] = pcaptest.Frame{
			SrcIP:   net.IP{10, 0, byte(rng.Intn(256)), byte(rng.Intn(254) + 1)},
			DstIP:   net.IP{192, 168, byte(rng.Intn(256)), byte(rng.Intn(254) + 1)},
			SrcPort: uint16(rng.Intn(65535-1024) + 1024),
			DstPort: []uint16{80, 443, 53, 8080}[rng.Intn(4)],
		}
		if endpoints[i].DstPort == 53 {
			endpoints[i].Protocol = layers.IPProtocolUDP
		}
	}

	log.Printf("Generating %d %s packets over %d flows into %s...", *packetCount, *profileName, *flows, *outputFile)

	ts := time.Now()
	for i := 0; i < *packetCount; i++ {
		if (i+1)%100000 == 0 {
			log.Printf("Generated %d packets...", i+1)
		}
		ts = ts.Add(time.Duration(rng.ExpFloat64() * float64(profile.gap)))

		frame := endpoints[rng.Intn(len(endpoints))]
		frame.Timestamp = ts
		frame.PayloadSize = profile.minPayload + rng.Intn(profile.maxPayload-profile.minPayload+1)
		frame.NonIP = rng.Float64() < *nonIP

		if err := w.WriteFrame(frame); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets into %s.", *packetCount, *outputFile)
}

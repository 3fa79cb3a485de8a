package main

import (
	"FlowSentinel/internal/engine/feature"
	"FlowSentinel/internal/engine/flowkey"
	"FlowSentinel/pkg/pcap"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	limit := flag.Int("n", 5, "Number of packet records to print")
	fiveTuple := flag.Bool("flows", false, "Group by 5-tuple instead of treating the capture as one flow")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/pcapana [-n N] [-flows] <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	records, err := pcap.ReadFile(pcapFilePath)
	if err != nil {
		log.Fatal(err)
	}

	for i, r := range records {
		if i >= *limit {
			break
		}
		if r.FiveTuple == nil {
			fmt.Printf("[%.6f] non-ip len=%d\n", r.Timestamp, r.Length)
			continue
		}
		ft := r.FiveTuple
		fmt.Printf("[%.6f] %s:%d -> %s:%d proto=%d len=%d\n",
			r.Timestamp, ft.SrcIP, ft.SrcPort, ft.DstIP, ft.DstPort, ft.Protocol, r.Length)
	}
	fmt.Printf("%d packet records\n", len(records))

	var resolver flowkey.Resolver = flowkey.SingleFlow{}
	if *fiveTuple {
		resolver, err = flowkey.NewFiveTuple([]string{"SrcIP", "DstIP", "SrcPort", "DstPort", "Protocol"})
		if err != nil {
			log.Fatal(err)
		}
	}
	for _, f := range feature.ExtractGroups(resolver.Group(records)) {
		fmt.Printf("%s: %+v\n", f.Key, f.Features)
	}
}

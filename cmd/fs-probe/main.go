package main

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/probe"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML configuration")
	maliciousOnly := flag.Bool("malicious", false, "Only print malicious verdicts")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ApplyLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Start(func(m probe.Message) {
		v := m.Verdict
		if *maliciousOnly && v.Result.Label != model.LabelMalicious {
			return
		}
		fmt.Printf("[%s] %s flow=%s -> %s (confidence %.2f, %d packets, %d bytes)\n",
			m.ObservedAt.Format("2006-01-02 15:04:05"),
			m.Source,
			v.Key,
			model.LabelName(v.Result.Label),
			v.Result.Confidence,
			int64(v.Features.PacketCount),
			int64(v.Features.ByteCount),
		)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	// Set up a channel to handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down subscriber...")
}

package main

import (
	"FlowSentinel/internal/api"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/pipeline"
	"FlowSentinel/internal/sink"
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ApplyLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	p, closeStore, err := pipeline.FromConfig(cfg, pipeline.WithReportWriter(nil))
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer closeStore()

	// A missing model is not fatal; POST /api/v1/model/reload loads it later.
	if err := p.Load(cfg.ModelStore.ModelPath); err != nil {
		log.Warnf("Starting without a model: %v", err)
	}

	writers, err := sink.New(cfg.Sinks)
	if err != nil {
		log.Fatalf("Failed to create verdict sinks: %v", err)
	}
	defer writers.Close()

	health := api.NewHealth()
	health.Update(p.Ready())

	// Run gRPC health server
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.API.GRPCListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCListenAddr, err)
	}
	go func() {
		log.Printf("gRPC health server starting on %s", cfg.API.GRPCListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	handler := api.NewHandler(p, cfg.ModelStore.ModelPath, cfg.API.MaxCaptureBytes, writers, health)
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: handler.Router(),
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Servers shutting down...")

	health.Shutdown()
	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	log.Println("All servers exited.")
}

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/simulator"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 9470, "simulator server port")
	logLevel := flag.String("log-level", "info", "log level")
	seedCluster := flag.String("seed-cluster", "", "cluster id to pre-seed with demo SKUs")
	flag.Parse()

	logger.Setup(*logLevel, "development")
	logger.Info("Starting resource cluster simulator")

	sim := simulator.New(simulator.Config{
		Port: *port,
	})

	if *seedCluster != "" {
		seedDemoSkus(sim, *seedCluster)
	}

	if err := sim.Start(); err != nil {
		return fmt.Errorf("failed to start simulator: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down simulator")
	return sim.Stop()
}

func seedDemoSkus(sim *simulator.Simulator, clusterID string) {
	c := sim.GetOrCreateCluster(clusterID)
	c.SeedSku(models.SkuDefinition{
		SkuID:   "small",
		Machine: models.MachineDefinition{CPUCores: 2, MemoryMB: 2048, NetworkMbps: 700, DiskMB: 10240, NumPorts: 5},
	}, 4, 10)
	c.SeedSku(models.SkuDefinition{
		SkuID:   "large",
		Machine: models.MachineDefinition{CPUCores: 4, MemoryMB: 16384, NetworkMbps: 1400, DiskMB: 81920, NumPorts: 5},
	}, 16, 16)

	logger.WithCluster(clusterID).Info("Seeded demo SKUs: small, large")
}

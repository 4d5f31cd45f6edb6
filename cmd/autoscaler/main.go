package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OldStager01/resource-autoscaler/api"
	"github.com/OldStager01/resource-autoscaler/internal/cluster"
	"github.com/OldStager01/resource-autoscaler/internal/controller"
	"github.com/OldStager01/resource-autoscaler/internal/dispatch"
	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/manager"
	"github.com/OldStager01/resource-autoscaler/internal/metrics"
	"github.com/OldStager01/resource-autoscaler/internal/provisioner"
	"github.com/OldStager01/resource-autoscaler/internal/resilience"
	"github.com/OldStager01/resource-autoscaler/internal/rulestore"
	"github.com/OldStager01/resource-autoscaler/pkg/config"
	"github.com/OldStager01/resource-autoscaler/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
	}

	if *migrate {
		if db == nil {
			return fmt.Errorf("migrations require database.enabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		if err := database.NewMigrator(db).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	// Rule store: postgres when available, in-memory otherwise.
	var store rulestore.Store
	if db != nil {
		store = rulestore.NewPostgresStore(db)
	} else {
		store = rulestore.NewStaticStore()
		logger.Warn("Database disabled, using empty in-memory rule store")
	}

	clusterClient := cluster.NewResilientClient(cluster.ResilientClientConfig{
		Client: cluster.NewHTTPClient(cluster.HTTPClientConfig{
			Endpoint: cfg.Cluster.Endpoint,
			Timeout:  cfg.Cluster.Timeout,
		}),
		MaxFailures:   cfg.Cluster.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Cluster.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Cluster.RetryAttempts,
		RetryDelay:    cfg.Cluster.RetryDelay,
		OnStateChange: onCircuitStateChange,
	})
	defer clusterClient.Close()

	hostProvisioner := provisioner.NewResilientProvisioner(provisioner.ResilientProvisionerConfig{
		Provisioner: provisioner.NewHTTPProvisioner(provisioner.HTTPProvisionerConfig{
			Endpoint: cfg.Provisioner.Endpoint,
			Timeout:  cfg.Provisioner.Timeout,
		}),
		MaxFailures:   cfg.Provisioner.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Provisioner.CircuitBreaker.Timeout,
		OnStateChange: onCircuitStateChange,
	})
	defer hostProvisioner.Close()

	mgr := manager.New(db, cfg.Events.BufferSize)
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("failed to start manager: %w", err)
	}
	defer mgr.Stop()

	for _, clusterID := range cfg.Controller.ClusterIDs {
		err := mgr.StartCluster(controller.Config{
			ClusterID:       clusterID,
			SampleInterval:  cfg.Controller.SampleInterval,
			RefreshInterval: cfg.Controller.RefreshInterval,
			RequestTimeout:  cfg.Controller.RequestTimeout,
			Store:           store,
			Cluster:         clusterClient,
			Dispatcher:      dispatch.New(hostProvisioner, mgr.Publisher()),
		})
		if err != nil {
			return fmt.Errorf("failed to start cluster %s: %w", clusterID, err)
		}
	}

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port)
	}

	server := api.NewServer(cfg.API, cfg.WebSocket, db, mgr)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func onCircuitStateChange(name string, from, to resilience.State) {
	logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
	metrics.Get().SetCircuitBreakerState(name, int(to))
}

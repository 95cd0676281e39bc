package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/agents"
	"github.com/mahirxmc/nova-agent-2/internal/config"
	"github.com/mahirxmc/nova-agent-2/internal/observability"
	"github.com/mahirxmc/nova-agent-2/internal/policy"
	store "github.com/mahirxmc/nova-agent-2/internal/repository"
	"github.com/mahirxmc/nova-agent-2/internal/service"
	transport "github.com/mahirxmc/nova-agent-2/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting relay...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Upstream URL: %s", cfg.UpstreamURL)
	log.Printf("Default model: %s", cfg.DefaultModel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store; recording is off without a database
	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer db.Close()
		st = db
		log.Printf("Database: %s", cfg.DatabaseURL)
	}

	// Initialize agent registry
	registry, err := agents.Load(cfg.AgentsFile)
	if err != nil {
		log.Fatalf("Failed to load agents: %v", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.Load(ctx, cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize provider
	provider := llm.NewProvider(cfg.Mode, cfg.UpstreamURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout)

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewRelayMetrics(reg)

	// Initialize service
	svc := service.New(provider, registry, policyEngine, st, metrics, service.Options{
		DefaultModel: cfg.DefaultModel,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
	})

	server := transport.NewServer(svc, cfg, reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down relay...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown server gracefully: %v", err)
		}
		return nil
	})

	log.Printf("Relay started on port %d", cfg.HTTPPort)

	if err := g.Wait(); err != nil {
		log.Printf("Relay stopped with error: %v", err)
		os.Exit(1)
	}
	log.Println("Relay stopped")
}

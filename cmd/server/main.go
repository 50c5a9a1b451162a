// Package main runs the certificate ledger service: a serialized operation
// surface over the role registry, certificate ledger, exchange engine and
// native bank, with a persisted operation journal, a purchase archive, a
// websocket event feed and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/polyphene/recs-contract/internal/address"
	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/events"
	"github.com/polyphene/recs-contract/internal/observability"
	"github.com/polyphene/recs-contract/internal/runtime"
	"github.com/polyphene/recs-contract/internal/storage"
	chstore "github.com/polyphene/recs-contract/internal/storage/clickhouse"
	"github.com/polyphene/recs-contract/internal/storage/memory"
	"github.com/polyphene/recs-contract/internal/storage/migrations"
	pgstore "github.com/polyphene/recs-contract/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the operation journal")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for the purchase archive")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	deployerAddr := flag.String("deployer", os.Getenv("DEPLOYER_ADDRESS"), "Deployer address; granted every role (generated when empty)")
	busBuffer := flag.Int("feed-buffer", 64, "Per-subscriber event feed buffer size")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	deployer, err := resolveDeployer(*deployerAddr, logger)
	if err != nil {
		logger.Fatalf("Invalid deployer address: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	journal, archive, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	bus := events.NewBus(*busBuffer)
	metrics := observability.NewMetrics("", nil)

	rt := runtime.New(runtime.Config{
		Deployer: deployer,
		Journal:  journal,
		Archive:  archive,
		Bus:      bus,
		Metrics:  metrics,
	})

	server := newServer(rt, bus, metrics, logger)

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s (deployer=%s)", *listenAddr, deployer)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolveDeployer validates the configured deployer address or generates a
// fresh keypair when none is configured.
func resolveDeployer(configured string, logger *log.Logger) (domain.Address, error) {
	if configured != "" {
		addr := domain.Address(configured)
		if err := address.Validate(addr); err != nil {
			return domain.ZeroAddress, err
		}
		return addr, nil
	}

	addr, _, err := address.Generate()
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("generate deployer keypair: %w", err)
	}
	logger.Printf("No deployer configured, generated %s", addr)
	return addr, nil
}

// createStores builds the journal and archive backends. The returned
// cleanup closes whatever was opened.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.EventStore, storage.PurchaseStore, func(), error) {
	if useMemory {
		return memory.NewEventStore(), memory.NewPurchaseStore(), func() {}, nil
	}

	// PostgreSQL journal
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse archive
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
		chConn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewEventStore(pool), chstore.NewPurchaseStore(chConn), cleanup, nil
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

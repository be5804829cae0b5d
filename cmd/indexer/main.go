package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/config"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/engine"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/indexer"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/pricing"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Cellar Indexer")

	// Build the cellar registry
	registry, err := config.Registry(cfg.Cellars)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid cellar registry", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Vault and token reads go over the RPC endpoint
	ethDialer := adapter.NewEthClientDialer()
	rpcClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	defer rpcClient.Close()

	readers := make(map[domain.Generation]chain.VaultReader)
	for _, generation := range []domain.Generation{domain.GenerationV1, domain.GenerationV1_5, domain.GenerationV2} {
		reader, err := chain.NewVaultReader(rpcClient, generation)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create vault reader", zap.Error(err), zap.String("generation", string(generation)))
		}
		readers[generation] = reader
	}

	erc20Reader := chain.NewERC20Reader(rpcClient)

	priceSource, err := pricing.NewChainlinkSource(rpcClient)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create price source", zap.Error(err))
	}
	oracle := pricing.NewCachedOracle(dataStore, priceSource)

	// Build the aggregation engine
	repo := entities.NewRepository(dataStore)
	eng := engine.New(repo, registry, readers, erc20Reader, oracle)

	// Initialize the NATS consumer
	eventIndexer, err := indexer.NewIndexer(indexer.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		ConsumerName:   cfg.NATS.ConsumerName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
		AckWaitTimeout: cfg.NATS.AckWait,
		MaxDeliver:     cfg.NATS.MaxDeliver,
	}, natsJS, eng, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create indexer", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer eventIndexer.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for indexer errors
	errCh := make(chan error, 1)

	// Start the indexer
	go func() {
		if err := eventIndexer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "indexer"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Cellar Indexer stopped")
}

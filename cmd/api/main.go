package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/ai"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/cache"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/config"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/holders"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/ingest"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/jupiter"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/prices"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/server"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DevMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Shared pacing for every outbound RPC call.
	limiter := rate.NewLimiter(rate.Limit(cfg.RPCRate), cfg.RPCBurst)

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:     cfg.RPCUrl,
		Timeout:     cfg.RPCTimeout,
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.BaseBackoff,
		Limiter:     limiter,
		Logger:      logger,
	})

	// Transfers store: ClickHouse when configured, in-memory otherwise.
	var store storage.TransactionStore
	if cfg.ClickHouseAddr != "" {
		chStore, err := cache.NewClickHouseStore(cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		store = chStore
	} else {
		logger.Warn("CLICKHOUSE_ADDR not set, using in-memory store")
		store = cache.NewMemoryStore()
	}
	defer func() {
		_ = store.Close()
	}()

	// Redis price cache is auxiliary; run without it when unreachable.
	var priceCache storage.PriceCache
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0,
		})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, price caching disabled")
		} else {
			priceCache = cache.NewRedisPriceCache(rclient, cfg.PriceCacheTTL, logger)
			defer func() {
				_ = rclient.Close()
			}()
		}
	}

	priceService := prices.NewService(
		jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		priceCache,
		logger,
	)

	ingestor := ingest.NewIngestor(ingest.IngestorConfig{
		Chain:     rpcClient,
		Store:     store,
		Prices:    priceService,
		PriceMint: cfg.PriceMint,
		SigLimit:  cfg.SignatureLimit,
		Workers:   cfg.IngestWorkers,
		Logger:    logger,
	})

	aggregator := holders.NewAggregator(holders.AggregatorConfig{
		Chain:         rpcClient,
		ReferenceMint: cfg.ReferenceMint,
		Workers:       cfg.HolderWorkers,
		Logger:        logger,
	})

	// AI agent is optional; only initialized with an OpenRouter key
	// and a real ClickHouse backing it.
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.AIModel,
		Logger:             logger,
	}
	if cfg.OpenRouterAPIKey != "" && cfg.ClickHouseAddr != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close()
			}()
		}
	}

	h := &server.Handlers{
		Store:        store,
		Ingestor:     ingestor,
		Holders:      aggregator,
		Prices:       priceService,
		AI:           agent,
		AIBaseConfig: aiBase,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:         cfg.APIAddr,
			DevMode:      cfg.DevMode,
			APIKey:       cfg.APIKey,
			AllowOrigins: cfg.AllowOrigins,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}

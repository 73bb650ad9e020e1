package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/redis"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/application"
	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
	"github.com/wyfcoding/swapcashflow/internal/cashflow/infrastructure/persistence/mysql"
	cashflowredis "github.com/wyfcoding/swapcashflow/internal/cashflow/infrastructure/persistence/redis"
	eventhandlers "github.com/wyfcoding/swapcashflow/internal/cashflow/interfaces/events"
	httpserver "github.com/wyfcoding/swapcashflow/internal/cashflow/interfaces/http"
)

var configPath = flag.String("config", "configs/cashflow/config.toml", "config file path")

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	CashFlow      struct {
		SnapshotTTLSeconds int `mapstructure:"snapshot_ttl_seconds" toml:"snapshot_ttl_seconds"`
		CalcTimeoutMillis  int `mapstructure:"calc_timeout_millis" toml:"calc_timeout_millis"`
	} `mapstructure:"cashflow" toml:"cashflow"`
}

func main() {
	flag.Parse()

	// 1. Config
	var cfg Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	snapshotTTL := 5 * time.Minute
	if cfg.CashFlow.SnapshotTTLSeconds > 0 {
		snapshotTTL = time.Duration(cfg.CashFlow.SnapshotTTLSeconds) * time.Second
	}
	calcTimeout := time.Second
	if cfg.CashFlow.CalcTimeoutMillis > 0 {
		calcTimeout = time.Duration(cfg.CashFlow.CalcTimeoutMillis) * time.Millisecond
	}

	// 2. Logger
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "cashflow",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. Database
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&domain.SwapContract{}, &domain.Lot{}, &domain.Position{},
			&domain.CashFlow{}, &domain.CalculationTask{},
			&domain.PriceMark{}, &domain.RateFixing{}, &domain.DividendDeclaration{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Redis
	redisClient, redisCleanup, err := redis.NewClient(&cfg.Data.Redis, logger)
	if err != nil {
		slog.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	defer redisCleanup()

	// 6. Kafka & Outbox
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	defer producer.Close()
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()
	defer outboxProc.Stop()
	publisher := outbox.NewPublisher(outboxMgr)

	// 7. Repositories
	contractRepo := mysql.NewContractRepository(db.RawDB())
	lotRepo := mysql.NewLotRepository(db.RawDB())
	positionRepo := mysql.NewPositionRepository(db.RawDB())
	cashFlowRepo := mysql.NewCashFlowRepository(db.RawDB())
	taskRepo := mysql.NewTaskRepository(db.RawDB())
	marketRepo := mysql.NewMarketDataRepository(db.RawDB())
	priceCache := cashflowredis.NewPriceCache(redisClient, snapshotTTL)

	// 8. Services
	calcService := application.NewCalculationService(
		contractRepo, lotRepo, positionRepo, cashFlowRepo, marketRepo, priceCache,
		publisher, snapshotTTL, slog.Default(),
	)
	taskService := application.NewTaskService(taskRepo, contractRepo, calcService, publisher, slog.Default())
	contractService := application.NewContractCommandService(contractRepo, lotRepo, publisher, slog.Default())
	queryService := application.NewQueryService(contractRepo, lotRepo, cashFlowRepo, slog.Default())

	// 9. Consumers
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	mdHandler := eventhandlers.NewMarketDataEventHandler(marketRepo, priceCache, slog.Default())
	mdTopics := []string{
		eventhandlers.PriceUpdatedTopic,
		eventhandlers.RateUpdatedTopic,
		eventhandlers.DividendDeclaredTopic,
	}
	for _, topic := range mdTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		consumerCfg.GroupID = "cashflow-marketdata-group"
		mdHandler.Subscribe(rootCtx, kafka.NewConsumer(&consumerCfg, logger, metricsImpl), 2)
	}

	settleConsumerCfg := cfg.MessageQueue.Kafka
	settleConsumerCfg.GroupID = "cashflow-settlement-group"
	settleConsumerCfg.Topic = eventhandlers.InstructionSettled
	settleConsumer := kafka.NewConsumer(&settleConsumerCfg, logger, metricsImpl)
	eventhandlers.NewSettlementEventHandler(calcService, slog.Default()).Subscribe(rootCtx, settleConsumer, 1)

	// 10. HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handler := httpserver.NewCashFlowHandler(calcService, taskService, contractService, queryService, calcTimeout)
	handler.RegisterRoutes(r.Group("/api/v1"))

	// 11. Start
	g, ctx := errgroup.WithContext(rootCtx)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.HTTP.Port), Handler: r}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		rootCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

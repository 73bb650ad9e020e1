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
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/swapcashflow/internal/settlement/application"
	"github.com/wyfcoding/swapcashflow/internal/settlement/domain"
	"github.com/wyfcoding/swapcashflow/internal/settlement/infrastructure/persistence/mysql"
	eventhandlers "github.com/wyfcoding/swapcashflow/internal/settlement/interfaces/events"
	httpserver "github.com/wyfcoding/swapcashflow/internal/settlement/interfaces/http"
)

var configPath = flag.String("config", "configs/settlement/config.toml", "config file path")

// FlowRealizedTopic 订阅的现金流实现事件主题
const FlowRealizedTopic = "cashflow.flow.realized"

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Settlement    struct {
		SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" toml:"sweep_interval_seconds"`
	} `mapstructure:"settlement" toml:"settlement"`
}

func main() {
	flag.Parse()

	// 1. Config
	var cfg Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	sweepInterval := time.Minute
	if cfg.Settlement.SweepIntervalSeconds > 0 {
		sweepInterval = time.Duration(cfg.Settlement.SweepIntervalSeconds) * time.Second
	}

	// 2. Logger
	logCfg := &logging.Config{Service: cfg.Server.Name, Module: "settlement", Level: cfg.Log.Level}
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
		if err := db.RawDB().AutoMigrate(&domain.SettlementInstruction{}, &outbox.Message{}); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka & Outbox
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	defer producer.Close()
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()
	defer outboxProc.Stop()

	// 6. Service
	repo := mysql.NewInstructionRepository(db.RawDB())
	service := application.NewSettlementService(repo, outbox.NewPublisher(outboxMgr), slog.Default())

	// 7. Consumer
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	consumerCfg := cfg.MessageQueue.Kafka
	consumerCfg.Topic = FlowRealizedTopic
	consumerCfg.GroupID = "settlement-cashflow-group"
	consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
	eventhandlers.NewFlowRealizedHandler(service, slog.Default()).Subscribe(rootCtx, consumer, 2)

	// 8. HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpserver.NewSettlementHandler(service).RegisterRoutes(r.Group("/api/v1"))

	// 9. Start
	g, ctx := errgroup.WithContext(rootCtx)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.HTTP.Port), Handler: r}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 到期结算扫描
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, _, err := service.SettleDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
					slog.Error("settlement sweep failed", "error", err)
				}
			}
		}
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

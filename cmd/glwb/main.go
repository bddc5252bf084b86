package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/annuitypricing/internal/glwb/application"
	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
	"github.com/wyfcoding/annuitypricing/internal/glwb/infrastructure/messaging"
	"github.com/wyfcoding/annuitypricing/internal/glwb/infrastructure/persistence/mysql"
	"github.com/wyfcoding/annuitypricing/internal/glwb/interfaces/consumer"
	glwbhttp "github.com/wyfcoding/annuitypricing/internal/glwb/interfaces/http"
	"github.com/wyfcoding/annuitypricing/pkg/config"
	"github.com/wyfcoding/annuitypricing/pkg/db"
	"github.com/wyfcoding/annuitypricing/pkg/logger"
	"github.com/wyfcoding/annuitypricing/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/glwb/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()
	logger.Info(ctx, "starting glwb valuation service",
		"service", cfg.ServiceName, "version", cfg.Version, "environment", cfg.Environment)

	// 3. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect db failed", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&mysql.ValuationModel{},
		&mysql.PolicySummaryModel{},
		&messaging.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "migrate db failed", "error", err)
	}

	// 4. Infrastructure
	valuationRepo := mysql.NewValuationRepository(database.DB)
	summaryRepo := mysql.NewPolicySummaryRepository(database.DB)
	outbox := messaging.NewOutboxEventPublisher(database.DB)

	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "create kafka producer failed", "error", err)
	}
	defer producer.Close()

	// 5. Application
	defaults := application.SimulationDefaults{
		Paths:        cfg.Simulation.Paths,
		Seed:         cfg.Simulation.Seed,
		StepsPerYear: cfg.Simulation.StepsPerYear,
		MaxAge:       cfg.Simulation.MaxAge,
		Antithetic:   cfg.Simulation.Antithetic,
	}
	commandService := application.NewGLWBCommandService(valuationRepo, outbox, defaults)
	queryService := application.NewGLWBQueryService(valuationRepo, summaryRepo, defaults)
	projectionService := application.NewGLWBProjectionService(summaryRepo, logger.Get())

	// 6. Interfaces
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := glwbhttp.NewGLWBHandler(commandService, queryService)
	handler.RegisterRoutes(&router.RouterGroup)

	sys := router.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
		})
		sys.GET("/pprof/profile", gin.WrapF(pprof.Profile))
		sys.GET("/pprof/heap", gin.WrapH(pprof.Handler("heap")))
		sys.GET("/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// HTTP server
	g.Go(func() error {
		logger.Info(gctx, "http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Outbox relay
	g.Go(func() error {
		interval := time.Duration(cfg.Kafka.OutboxPollInterval) * time.Millisecond
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sent, err := outbox.ProcessOutboxMessages(gctx, producer, cfg.Kafka.OutboxBatchSize)
				if err != nil {
					logger.Error(gctx, "outbox relay failed", "sent", sent, "error", err)
					continue
				}
				if sent > 0 {
					logger.Debug(gctx, "outbox messages relayed", "count", sent)
				}
			}
		}
	})

	// Projection consumers
	projectionHandler := consumer.NewProjectionHandler(projectionService, logger.Get())
	topics := []string{
		domain.GLWBPricedEventType,
		domain.FairFeeSolvedEventType,
		domain.SensitivityCalculatedEventType,
		domain.PricingFailedEventType,
	}
	for _, topic := range topics {
		kafkaConsumer, err := mq.NewConsumer(mq.KafkaConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			SessionTimeout: cfg.Kafka.SessionTimeout,
		}, topic)
		if err != nil {
			logger.Fatal(ctx, "create kafka consumer failed", "topic", topic, "error", err)
		}
		defer kafkaConsumer.Close()
		g.Go(func() error {
			return kafkaConsumer.Run(gctx, projectionHandler.Handle)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-gctx.Done():
			return nil
		case sig := <-quit:
			logger.Info(gctx, "shutting down", "signal", sig.String())
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error(gctx, "http shutdown failed", "error", err)
			}
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatal(ctx, "service exited with error", "error", err)
	}
	logger.Info(ctx, "service exiting")
}

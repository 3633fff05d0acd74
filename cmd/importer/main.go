package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-import-service/config"
	"menu-import-service/internal/broker"
	"menu-import-service/internal/models"
	"menu-import-service/internal/service"
	"menu-import-service/internal/store"
	"menu-import-service/internal/util"

	"go.uber.org/zap"
)

func main() {
	var (
		file          = flag.String("file", "", "import a single snapshot file")
		dir           = flag.String("dir", "", "import every *.json snapshot in a directory")
		cleanupOffers = flag.Bool("cleanup-offers", false, "delete offers no longer referenced by any active restaurant")
		noEvents      = flag.Bool("no-events", false, "skip publishing import events to Kafka")
	)
	flag.Parse()

	if *file == "" && *dir == "" && !*cleanupOffers {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	tp, err := util.InitTracer("menu-importer", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("Failed to shut down tracer", zap.Error(err))
			}
		}()
	}

	st, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer st.Close()

	var publisher *broker.EventPublisher
	if !*noEvents {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicImports)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
	}

	importer := service.NewImportService(st, publisher,
		cfg.Import.RetryAttempts,
		time.Duration(cfg.Import.RetryBackoffMilli)*time.Millisecond)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := 0

	switch {
	case *file != "":
		result, err := importer.ImportFile(ctx, *file)
		if err != nil {
			logger.Error("Import failed", zap.String("file", *file), zap.Error(err))
			exitCode = 1
			break
		}
		reportResult(logger, *file, result)
		if result.Status == models.SessionStatusFailed {
			exitCode = 1
		}
	case *dir != "":
		batch, err := importer.ImportDirectory(ctx, *dir)
		if err != nil {
			logger.Error("Batch import failed", zap.String("dir", *dir), zap.Error(err))
			exitCode = 1
			break
		}
		for _, result := range batch.Results {
			reportResult(logger, "", &result)
		}
		logger.Info("Batch import finished",
			zap.Int("snapshots", len(batch.Results)),
			zap.Int("failed", batch.Failed))
		if batch.Failed > 0 {
			exitCode = 1
		}
	}

	if *cleanupOffers && exitCode == 0 {
		maintenance := service.NewMaintenance(st)
		cleanup, err := maintenance.CleanupOrphanOffers(ctx)
		if err != nil {
			logger.Error("Offer cleanup failed", zap.Error(err))
			exitCode = 1
		} else {
			logger.Info("Offer cleanup finished",
				zap.Int("offers_deleted", cleanup.OffersDeleted),
				zap.Int64("prices_detached", cleanup.PricesDetached))
		}
	}

	os.Exit(exitCode)
}

func reportResult(logger *zap.Logger, source string, result *service.ImportResult) {
	fields := []zap.Field{
		zap.String("session_id", result.SessionID.String()),
		zap.String("status", result.Status),
		zap.Int("products", result.ProductCount),
		zap.Int("categories", result.CategoryCount),
		zap.Int("price_points", result.PricePoints),
	}
	if source != "" {
		fields = append(fields, zap.String("file", source))
	}
	if result.RestaurantID != nil {
		fields = append(fields, zap.String("restaurant_id", result.RestaurantID.String()))
	}

	switch result.Status {
	case models.SessionStatusCompleted:
		logger.Info("Import completed", fields...)
	case models.SessionStatusPartial:
		fields = append(fields, zap.Int("errors", len(result.Errors)))
		logger.Warn("Import completed with errors", fields...)
	default:
		if len(result.Errors) > 0 {
			fields = append(fields, zap.String("reason", result.Errors[0].Message))
		}
		logger.Error("Import failed", fields...)
	}
	fmt.Printf("session %s: %s (%d products, %d price points)\n",
		result.SessionID, result.Status, result.ProductCount, result.PricePoints)
}

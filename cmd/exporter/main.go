package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/config"
	"github.com/terrep263/snapbrand/internal/database"
	"github.com/terrep263/snapbrand/internal/pkg/export"
	"github.com/terrep263/snapbrand/internal/pkg/kafka"
	"github.com/terrep263/snapbrand/internal/pkg/storage"
	"github.com/terrep263/snapbrand/internal/service"
)

// The exporter consumes queued export jobs and runs them through the same
// export service the API uses for inline runs.
func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	storagePath := config.GetEnv("STORAGE_PATH", "./storage")
	redisAddr := config.GetEnv("REDIS_ADDR", "localhost:6379")
	brokers := config.GetEnv("KAFKA_BROKERS", "localhost:9094")
	groupID := config.GetEnv("KAFKA_GROUP_ID", "watermark-exporter")

	concurrency := export.DefaultConcurrency
	if v, err := strconv.Atoi(config.GetEnv("EXPORT_CONCURRENCY", "")); err == nil && v > 0 {
		concurrency = v
	}

	fileStorage := storage.NewFileStorage(storagePath)
	batchRepo := database.NewBatchRepository(fileStorage)

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	designRepo, err := database.NewDesignRepository(redisClient)
	if err != nil {
		logrus.Fatalf("failed to connect to redis: %s", err.Error())
	}

	exportService := service.NewExportService(batchRepo, designRepo, kafka.NewProducer(brokers), concurrency)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
		<-quit
		cancel()
	}()

	kafka.StartExportConsumer(ctx, []string{brokers}, kafka.ExportTopic, groupID, exportService.RunExport)
}

// launching the server, storage, redis and kafka wiring
package appServer

import (
	"context"
	"crypto/tls"
	"log"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/config"
	"github.com/terrep263/snapbrand/internal/database"
	"github.com/terrep263/snapbrand/internal/pkg/kafka"
	"github.com/terrep263/snapbrand/internal/pkg/storage"
	"github.com/terrep263/snapbrand/internal/service"
	"github.com/terrep263/snapbrand/internal/transport"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	fileStorage := storage.NewFileStorage(cfg.App.StoragePath)
	batchRepo := database.NewBatchRepository(fileStorage)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.App.RedisAddr})
	designRepo, err := database.NewDesignRepository(redisClient)
	if err != nil {
		logrus.Fatalf("failed to connect to redis: %s", err.Error())
	}

	producer := kafka.NewProducer(cfg.App.KafkaBrokers)
	defer producer.Close()

	designService := service.NewDesignService(designRepo)
	exportService := service.NewExportService(batchRepo, designRepo, producer, cfg.App.Concurrency)
	handler := transport.NewHandler(designService, exportService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

}

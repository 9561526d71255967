package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/events"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/handler"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/repository"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/service"
	"github.com/cloud-wave-best-zizon/shopping-service/pkg/config"
	"github.com/cloud-wave-best-zizon/shopping-service/pkg/logger"
	"github.com/cloud-wave-best-zizon/shopping-service/pkg/middleware"
	pkgtls "github.com/cloud-wave-best-zizon/shopping-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Logger 초기화
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog 초기화: LOCAL_MODE면 메모리, 아니면 DynamoDB
	var catalog repository.CatalogRepository
	if cfg.LocalMode {
		zl.Info("Using in-memory catalog")
		catalog = repository.NewMemoryCatalog()
	} else {
		dynamoClient, err := repository.NewDynamoDBClient(ctx, cfg)
		if err != nil {
			zl.Fatal("Failed to create DynamoDB client", zap.Error(err))
		}
		catalog = repository.NewDynamoCatalog(dynamoClient, cfg.ProductTableName)
	}

	inventoryService := service.NewInventoryService(zl)

	// Kafka: 재고 이벤트 발행 + 주문 이벤트 소비
	if cfg.KafkaEnabled {
		brokers := strings.Split(cfg.KafkaBrokers, ",")

		producer := events.NewKafkaProducer(brokers, cfg.StockEventsTopic, zl)
		defer producer.Close()
		inventoryService.SetEventPublisher(producer)

		consumer := events.NewKafkaConsumer(brokers, cfg.KafkaGroupID, cfg.OrderEventsTopic, inventoryService, catalog, zl)
		consumer.SetCompensationProducer(producer)
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				zl.Error("Kafka consumer exited", zap.Error(err))
			}
		}()
	}

	inventoryHandler := handler.NewInventoryHandler(inventoryService, catalog, zl)

	// Gin Router 설정
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zl))

	// Routes
	v1 := router.Group("/api/v1")
	{
		inventoryHandler.RegisterRoutes(v1)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	serverTLS, tlsConfig, err := pkgtls.Load(ctx, cfg.TLSEnabled, cfg.SpireSocketPath, zl)
	if err != nil {
		zl.Fatal("Failed to load TLS config", zap.Error(err))
	}
	defer serverTLS.Close()
	go serverTLS.Watch(ctx)

	// Server 시작
	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsConfig,
	}

	go func() {
		zl.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.Bool("tls", tlsConfig != nil))

		var err error
		if tlsConfig != nil {
			// 인증서는 TLSConfig의 SPIRE 소스에서 제공
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()

	zl.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server exited")
}

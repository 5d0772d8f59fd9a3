package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	c "storefront/internal/cache"
	h "storefront/internal/http"
	"storefront/internal/publisher"
	"storefront/internal/repository"
	s "storefront/internal/service"
	"storefront/pkg/metrics"
)

type Config struct {
	HTTPPort        string
	Mongo           repository.MongoConfig
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	OrderTopic      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Mongo: repository.MongoConfig{
			URI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGO_DB_NAME", "storefront"),
			ConnectTimeout:   10 * time.Second,
			SelectionTimeout: 5 * time.Second,
			MaxPoolSize:      getEnvUint("MONGO_MAX_POOL_SIZE", 100),
			MinPoolSize:      getEnvUint("MONGO_MIN_POOL_SIZE", 10),
		},
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    brokers,
		OrderTopic:      getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	log.Printf("Connected to MongoDB at %s", cfg.Mongo.URI)

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	productRepo := repository.NewProductRepository(mongoDB)
	cartRepo := repository.NewCartRepository(mongoDB)
	orderRepo := repository.NewOrderRepository(mongoDB)
	outboxRepo := repository.NewOutboxRepository(mongoDB)
	txnRunner := repository.NewTxnRunner(mongoDB)

	cartCache := c.NewBreakerCache(c.NewRedisCache(redisClient))

	cartService := s.NewCartService(cartRepo, productRepo, cartCache)
	catalogService := s.NewCatalogService(productRepo)
	checkoutService := s.NewCheckoutService(cartRepo, productRepo, orderRepo, outboxRepo, txnRunner, cartCache)
	orderService := s.NewOrderService(orderRepo)

	serverMetrics := metrics.NewServerMetrics()

	router := h.NewRouter(h.RouterConfig{
		Cart:           h.NewCartHandler(cartService, cfg.RequestTimeout),
		Catalog:        h.NewCatalogHandler(catalogService, cfg.RequestTimeout),
		Orders:         h.NewOrderHandler(checkoutService, orderService, serverMetrics, cfg.RequestTimeout),
		Admin:          h.NewAdminHandler(orderService, catalogService, cfg.RequestTimeout),
		Metrics:        serverMetrics,
		RequestTimeout: cfg.RequestTimeout,
	})

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(outboxRepo, cfg.OrderTopic, cfg.KafkaBrokers...)
		go poller.Run(pollerCtx)
		log.Printf("Outbox poller publishing to %s via %v", cfg.OrderTopic, cfg.KafkaBrokers)
	} else {
		log.Printf("Kafka brokers not configured, outbox poller disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shop-service/handlers"
	"shop-service/internal/auth"
	"shop-service/internal/cache"
	"shop-service/internal/cart"
	"shop-service/internal/consul"
	"shop-service/internal/items"
	"shop-service/internal/orders"
	"shop-service/internal/stores/kafka"
	"shop-service/internal/stores/postgres"
	"shop-service/internal/users"
	"shop-service/pkg/logkey"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const serviceName = "shop-service"

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	keys, err := auth.NewKeys(os.Getenv("JWT_SECRET"), os.Getenv("REFRESH_TOKEN_SECRET"))
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	slog.Info("database migrated")

	itemsConf, err := items.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}

	// Optional subsystems: each activates only when its address is set.
	var kafkaConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
		slog.Info("kafka producer enabled", slog.String("Brokers", brokers))
	}

	var itemCache cache.ItemCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return err
		}
		itemCache = cache.NewRedisCache(redisClient)
		slog.Info("catalog cache enabled", slog.String("Addr", addr))
	}

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return err
	}

	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		address := getEnv("APP_HOST", "localhost")
		if err := consul.RegisterService(client, serviceName, address, port); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceName, address, port); err != nil {
				slog.Error("consul deregister failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("Service", serviceName))
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	api := handlers.API(prefix, keys, itemsConf, cartConf, ordersConf, usersConf, kafkaConf, itemCache)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("Port", port))
		serverErr <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vickybesra/Order-Execution-Engine/cache/redis"
	redisProvider "github.com/vickybesra/Order-Execution-Engine/cache/redis/providers"
	"github.com/vickybesra/Order-Execution-Engine/db/postgres"
	providers "github.com/vickybesra/Order-Execution-Engine/db/postgres/providers"
	"github.com/vickybesra/Order-Execution-Engine/repository"
	"github.com/vickybesra/Order-Execution-Engine/routes"
	orderService "github.com/vickybesra/Order-Execution-Engine/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded; relying on environment")
	}

	// 1. Connect Redis (ephemeral store)
	redisClient := redis.ConnectRedis()
	defer redisClient.Stop()

	redisHelper, err := redisProvider.NewRedisProvider(redisClient.RedisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis provider")
	}

	// 2. Connect PostgreSQL (durable store)
	postgresClient := postgres.ConnectDB()
	defer postgresClient.Stop()

	if err := postgresClient.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database schema")
	}

	dbHelper, err := providers.NewDbProvider(postgresClient.PostgresClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize DB helper")
	}

	// 3. Repositories & state store
	orderRepo := repository.NewOrderRepository(dbHelper)
	stateStore := repository.NewOrderStateStore(redisHelper, orderRepo)

	// 4. Pipeline components
	broadcaster := orderService.NewBroadcaster()
	quoteEngine := orderService.NewQuoteEngine(orderService.DefaultVenueParams(), 200*time.Millisecond)
	router := orderService.NewRoutingSelector(quoteEngine)
	executor := orderService.NewExecutionSimulator(500*time.Millisecond, nil)

	brokerCfg := orderService.DefaultBrokerConfig()
	if v, err := strconv.Atoi(os.Getenv("WORKER_CONCURRENCY")); err == nil && v > 0 {
		brokerCfg.Concurrency = v
	}
	if v, err := strconv.Atoi(os.Getenv("WORKER_RATE_LIMIT")); err == nil && v > 0 {
		brokerCfg.RatePerMinute = v
	}

	broker := orderService.NewBroker(brokerCfg, router, executor, stateStore, broadcaster)
	broker.Start()

	// 5. Service, gin router & handlers
	orderSrv := orderService.NewOrderService(stateStore, broker)
	engine := gin.Default()
	routes.RegisterRoutes(engine, orderSrv, broadcaster)

	// 6. Run REST API
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: engine,
	}

	go func() {
		log.Info().Str("port", port).Msg("order execution API running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	// 7. Wait for OS signal, then shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	broker.Stop()
	broadcaster.CloseAll()

	log.Info().Msg("shutdown complete")
}

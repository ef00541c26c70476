package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm_backend/internal/config"
	"farm_backend/internal/database"
	"farm_backend/internal/events"
	"farm_backend/internal/middleware"
	"farm_backend/internal/repositories"
	"farm_backend/internal/router"
	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.Open(startCtx, cfg.Database)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	if err := database.VerifySchema(startCtx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Database schema check failed")
	}
	cancel()

	tokens, err := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token manager")
	}

	m := metrics.New()
	publishers, closers := buildPublishers(cfg, db)
	dispatcher := events.NewDispatcher(events.DispatcherConfig{
		QueueSize:      cfg.Events.QueueSize,
		PublishTimeout: cfg.Events.PublishTimeout,
	}, m, publishers...)
	go func() {
		for err := range dispatcher.Errors() {
			utils.LogError(err, "Event delivery failed")
		}
	}()

	svc := router.NewServices(db, tokens, dispatcher, m)
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.EnsureAdmin(bootstrapCtx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		cancelBootstrap()
		log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}
	cancelBootstrap()

	engine := gin.New()
	router.Setup(engine, svc, router.Options{
		Tokens:       tokens,
		Metrics:      m,
		LoginLimiter: middleware.NewIPRateLimiter(cfg.HTTP.LoginRatePerSec, cfg.HTTP.LoginBurst, 10*time.Minute),
		CORSOrigins:  cfg.HTTP.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.App.Port, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}

	// Requests are done; deliver what is queued, then release the transports.
	dispatcher.Close()
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			utils.LogError(err, "Failed to close event transport")
		}
	}
	utils.LogInfo("Server exited")
}

// buildPublishers always logs to activity_log; Kafka and Redis join when enabled.
// A transport that cannot be reached at startup is skipped with an error log.
func buildPublishers(cfg *config.Config, db *sql.DB) ([]events.Publisher, []func() error) {
	publishers := []events.Publisher{
		events.NewActivityLogPublisher(repositories.NewActivityRepository(db)),
	}
	var closers []func() error

	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Retries:  cfg.Kafka.Retries,
			Acks:     cfg.Kafka.Acks,
			Topics: events.KafkaTopics{
				Items:   cfg.Kafka.ItemsTopic,
				Stock:   cfg.Kafka.StockTopic,
				Quality: cfg.Kafka.QualityTopic,
			},
		})
		if err != nil {
			utils.LogError(err, "Kafka publisher disabled", map[string]interface{}{"brokers": cfg.Kafka.Brokers})
		} else {
			publishers = append(publishers, kp)
			closers = append(closers, kp.Close)
		}
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			utils.LogError(err, "Redis publisher disabled", map[string]interface{}{"addr": cfg.Redis.Addr()})
			client.Close()
		} else {
			publishers = append(publishers, events.NewRedisPublisher(client, events.RedisConfig{
				Channel:   cfg.Redis.Channel,
				AlertsKey: cfg.Redis.AlertsKey,
				AlertsCap: cfg.Redis.AlertsCap,
			}))
			closers = append(closers, client.Close)
		}
	}
	return publishers, closers
}
